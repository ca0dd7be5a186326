package complement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/catalog"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/metrics"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/shopify"
)

const family = "complement"

// AdminAPI is the Admin API slice the complement orchestrator needs.
type AdminAPI interface {
	DiscountFunctionID(ctx context.Context, shop string) (string, error)
	CreateDiscount(ctx context.Context, shop string, input shopify.DiscountInput) (string, error)
	UpdateDiscountTitle(ctx context.Context, shop, discountGID, title string) error
	SetDiscountConfig(ctx context.Context, shop, discountGID, configJSON string) error
	SetDiscountDates(ctx context.Context, shop, discountGID string, startsAt, endsAt *time.Time) error
	DeleteDiscount(ctx context.Context, shop, discountGID string) error
	SetMetafield(ctx context.Context, shop, ownerGID, namespace, key, valueJSON string) error
	DeleteProductMetafield(ctx context.Context, shop, productGID, namespace, key string) error
	ShopGID(ctx context.Context, shop string) (string, error)
}

// Service orchestrates complement bundle CRUD against the local store and
// the shop's discount and metafield state.
type Service interface {
	List(ctx context.Context, shop string) ([]BundleResponse, error)
	Get(ctx context.Context, shop string, id uuid.UUID) (*BundleResponse, error)
	Create(ctx context.Context, shop string, input BundleInput) (*BundleResponse, error)
	Update(ctx context.Context, shop string, id uuid.UUID, input BundleInput) (*BundleResponse, error)
	Toggle(ctx context.Context, shop string, id uuid.UUID) (*BundleResponse, error)
	Delete(ctx context.Context, shop string, id uuid.UUID) error
}

type service struct {
	repo      Repository
	api       AdminAPI
	projector *projector
	logger    *logger.Logger
	metrics   *metrics.SyncMetrics
	now       func() time.Time
}

// NewService wires the complement bundle service.
func NewService(repo Repository, api AdminAPI, catalogSvc catalog.Service, logg *logger.Logger, syncMetrics *metrics.SyncMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("complement: repository is required")
	}
	if api == nil {
		return nil, errors.New("complement: admin api is required")
	}
	if catalogSvc == nil {
		return nil, errors.New("complement: catalog service is required")
	}
	if logg == nil {
		return nil, errors.New("complement: logger is required")
	}
	return &service{
		repo:      repo,
		api:       api,
		projector: newProjector(catalogSvc),
		logger:    logg,
		metrics:   syncMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, shop string) ([]BundleResponse, error) {
	bundles, err := s.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing complement bundles")
	}
	out := make([]BundleResponse, 0, len(bundles))
	for i := range bundles {
		out = append(out, *toResponse(&bundles[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, shop string, id uuid.UUID) (*BundleResponse, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}

	// Detail reads feed the edit form; refresh the complement entries with
	// live product data the same way the storefront projection does.
	resp := toResponse(bundle)
	resp.Complements = toEntryInputs(s.projector.enrich(ctx, shop, ParseEntries(bundle.Complements)))
	return resp, nil
}

func (s *service) Create(ctx context.Context, shop string, input BundleInput) (*BundleResponse, error) {
	start := s.now()
	bundle, err := s.create(ctx, shop, input)
	s.observe("create", start, err)
	if err != nil {
		return nil, err
	}
	return toResponse(bundle), nil
}

func (s *service) create(ctx context.Context, shop string, input BundleInput) (*models.ComplementBundle, error) {
	bundle := &models.ComplementBundle{ShopID: shop, Active: true}
	if err := applyInput(bundle, &input); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating complement bundle")
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	// On failure the row stays with a null discount id; the next edit retries.
	if err := s.createRemoteDiscount(ctx, shop, bundle); err != nil {
		return nil, err
	}

	if err := s.writeTriggerMetafield(ctx, shop, bundle); err != nil {
		return nil, err
	}
	if err := s.syncAggregate(ctx, shop); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *service) Update(ctx context.Context, shop string, id uuid.UUID, input BundleInput) (*BundleResponse, error) {
	start := s.now()
	bundle, err := s.update(ctx, shop, id, input)
	s.observe("update", start, err)
	if err != nil {
		return nil, err
	}
	return toResponse(bundle), nil
}

func (s *service) update(ctx context.Context, shop string, id uuid.UUID, input BundleInput) (*models.ComplementBundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	prevTriggerType := bundle.TriggerType
	prevTriggerReference := bundle.TriggerReference

	if err := applyInput(bundle, &input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating complement bundle")
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	if bundle.DiscountID != nil {
		if err := s.pushRemoteDiscount(ctx, shop, bundle); err != nil {
			return nil, err
		}
	} else if err := s.createRemoteDiscount(ctx, shop, bundle); err != nil {
		// Recreating a discount that never materialized is best effort.
		s.logger.Warn(ctx, "recreating missing discount failed")
	}

	if prevTriggerType == enums.TriggerTypeProduct && prevTriggerReference != nil && triggerChanged(bundle, prevTriggerReference) {
		if err := s.api.DeleteProductMetafield(ctx, shop, *prevTriggerReference, shopify.BundleNamespace, productConfigKey); err != nil {
			return nil, err
		}
	}
	if err := s.writeTriggerMetafield(ctx, shop, bundle); err != nil {
		return nil, err
	}
	if err := s.syncAggregate(ctx, shop); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *service) Toggle(ctx context.Context, shop string, id uuid.UUID) (*BundleResponse, error) {
	start := s.now()
	bundle, err := s.toggle(ctx, shop, id)
	s.observe("toggle", start, err)
	if err != nil {
		return nil, err
	}
	return toResponse(bundle), nil
}

func (s *service) toggle(ctx context.Context, shop string, id uuid.UUID) (*models.ComplementBundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	active := !bundle.Active
	if err := s.repo.SetActive(ctx, bundle.ID, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggling complement bundle")
	}
	bundle.Active = active
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	if bundle.DiscountID != nil {
		now := s.now().UTC()
		var startsAt, endsAt *time.Time
		if active {
			startsAt = &now
		} else {
			endsAt = &now
		}
		if err := s.api.SetDiscountDates(ctx, shop, *bundle.DiscountID, startsAt, endsAt); err != nil {
			return nil, err
		}
	}

	if active {
		if err := s.writeTriggerMetafield(ctx, shop, bundle); err != nil {
			return nil, err
		}
	} else if bundle.TriggerType == enums.TriggerTypeProduct && bundle.TriggerReference != nil {
		if err := s.api.DeleteProductMetafield(ctx, shop, *bundle.TriggerReference, shopify.BundleNamespace, productConfigKey); err != nil {
			return nil, err
		}
	}
	if err := s.syncAggregate(ctx, shop); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *service) Delete(ctx context.Context, shop string, id uuid.UUID) error {
	start := s.now()
	err := s.delete(ctx, shop, id)
	s.observe("delete", start, err)
	return err
}

func (s *service) delete(ctx context.Context, shop string, id uuid.UUID) error {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return err
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	if bundle.DiscountID != nil {
		if err := s.api.DeleteDiscount(ctx, shop, *bundle.DiscountID); err != nil {
			return err
		}
	}
	if bundle.TriggerType == enums.TriggerTypeProduct && bundle.TriggerReference != nil {
		if err := s.api.DeleteProductMetafield(ctx, shop, *bundle.TriggerReference, shopify.BundleNamespace, productConfigKey); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, bundle.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting complement bundle")
	}
	return s.syncAggregate(ctx, shop)
}

func (s *service) createRemoteDiscount(ctx context.Context, shop string, bundle *models.ComplementBundle) error {
	functionID, err := s.api.DiscountFunctionID(ctx, shop)
	if err != nil {
		return err
	}
	config, err := discount.Encode(Compile(bundle))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding discount configuration")
	}
	discountID, err := s.api.CreateDiscount(ctx, shop, shopify.DiscountInput{
		Title:      bundle.Name,
		FunctionID: functionID,
		StartsAt:   s.now(),
		Config:     config,
	})
	if err != nil {
		return err
	}
	if discountID == "" {
		return nil
	}
	if err := s.repo.SetDiscountID(ctx, bundle.ID, discountID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting discount id")
	}
	bundle.DiscountID = &discountID
	return nil
}

func (s *service) pushRemoteDiscount(ctx context.Context, shop string, bundle *models.ComplementBundle) error {
	if err := s.api.UpdateDiscountTitle(ctx, shop, *bundle.DiscountID, bundle.Name); err != nil {
		return err
	}
	config, err := discount.Encode(Compile(bundle))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding discount configuration")
	}
	return s.api.SetDiscountConfig(ctx, shop, *bundle.DiscountID, config)
}

func (s *service) writeTriggerMetafield(ctx context.Context, shop string, bundle *models.ComplementBundle) error {
	if bundle.TriggerType != enums.TriggerTypeProduct || bundle.TriggerReference == nil {
		return nil
	}
	payload := s.projector.productPayload(ctx, shop, bundle)
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding bundle metafield")
	}
	return s.api.SetMetafield(ctx, shop, *bundle.TriggerReference, shopify.BundleNamespace, productConfigKey, string(raw))
}

func (s *service) syncAggregate(ctx context.Context, shop string) error {
	bundles, err := s.repo.ListAggregate(ctx, shop)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing active complement bundles")
	}
	raw, err := json.Marshal(s.projector.aggregateEntries(bundles))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding shop aggregate")
	}
	shopGID, err := s.api.ShopGID(ctx, shop)
	if err != nil {
		return err
	}
	return s.api.SetMetafield(ctx, shop, shopGID, shopify.BundleNamespace, shopAggregateKey, string(raw))
}

func (s *service) find(ctx context.Context, shop string, id uuid.UUID) (*models.ComplementBundle, error) {
	bundle, err := s.repo.FindByID(ctx, shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "complement bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading complement bundle")
	}
	return bundle, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	s.metrics.ObserveSync(family, op, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(family, op)
		return
	}
	s.metrics.IncSuccess(family, op)
}

func triggerChanged(bundle *models.ComplementBundle, prev *string) bool {
	if bundle.TriggerType != enums.TriggerTypeProduct || bundle.TriggerReference == nil {
		return true
	}
	return *bundle.TriggerReference != *prev
}

func applyInput(bundle *models.ComplementBundle, input *BundleInput) error {
	triggerType, err := enums.ParseTriggerType(input.TriggerType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trigger type")
	}
	mode, err := enums.ParseComplementMode(input.Mode)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode")
	}
	if triggerType != enums.TriggerTypeAll && input.TriggerReference == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "trigger reference is required")
	}
	stored := make([]Entry, 0, len(input.Complements))
	for _, comp := range input.Complements {
		stored = append(stored, Entry{
			ProductID:   comp.ProductID,
			Title:       comp.Title,
			Handle:      comp.Handle,
			Image:       comp.Image,
			Price:       comp.Price,
			VariantID:   comp.VariantID,
			DiscountPct: comp.DiscountPct,
			Quantity:    comp.Quantity,
			Group:       comp.Group,
		})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding complements")
	}
	bundle.Name = input.Name
	bundle.TriggerType = triggerType
	bundle.TriggerReference = input.TriggerReference
	bundle.Mode = mode
	bundle.TriggerDiscountPct = input.TriggerDiscountPct
	bundle.Complements = string(raw)
	bundle.DesignConfig = input.DesignConfig
	return nil
}
