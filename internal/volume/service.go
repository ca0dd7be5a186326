package volume

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/metrics"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/shopify"
)

const family = "volume"

// AdminAPI is the Admin API slice the volume orchestrator needs.
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
	CollectionProductIDs(ctx context.Context, shop, collectionGID string) ([]string, error)
}

// Service orchestrates volume bundle CRUD against the local store and the
// shop's discount and metafield state.
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
	projector projector
	logger    *logger.Logger
	metrics   *metrics.SyncMetrics
	now       func() time.Time
}

// NewService wires the volume bundle service.
func NewService(repo Repository, api AdminAPI, logg *logger.Logger, syncMetrics *metrics.SyncMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("volume: repository is required")
	}
	if api == nil {
		return nil, errors.New("volume: admin api is required")
	}
	if logg == nil {
		return nil, errors.New("volume: logger is required")
	}
	return &service{
		repo:    repo,
		api:     api,
		logger:  logg,
		metrics: syncMetrics,
		now:     time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, shop string) ([]BundleResponse, error) {
	bundles, err := s.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing volume bundles")
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
	return toResponse(bundle), nil
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

func (s *service) create(ctx context.Context, shop string, input BundleInput) (*models.VolumeBundle, error) {
	bundle := &models.VolumeBundle{ShopID: shop, Active: true}
	if err := s.applyInput(ctx, shop, bundle, &input); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating volume bundle")
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	// On failure the row stays with a null discount id; the next edit retries.
	if err := s.createRemoteDiscount(ctx, shop, bundle); err != nil {
		return nil, err
	}

	if err := s.writeProductMetafields(ctx, shop, bundle); err != nil {
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

func (s *service) update(ctx context.Context, shop string, id uuid.UUID, input BundleInput) (*models.VolumeBundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	prevTriggerType := bundle.TriggerType
	prevProductIDs := append([]string{}, bundle.ProductIDs...)

	if err := s.applyInput(ctx, shop, bundle, &input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating volume bundle")
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

	if prevTriggerType == enums.TriggerTypeProduct {
		if err := s.removeProductMetafields(ctx, shop, prevProductIDs); err != nil {
			return nil, err
		}
	}
	if err := s.writeProductMetafields(ctx, shop, bundle); err != nil {
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

func (s *service) toggle(ctx context.Context, shop string, id uuid.UUID) (*models.VolumeBundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	active := !bundle.Active
	if err := s.repo.SetActive(ctx, bundle.ID, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggling volume bundle")
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
		if err := s.writeProductMetafields(ctx, shop, bundle); err != nil {
			return nil, err
		}
	} else if bundle.TriggerType == enums.TriggerTypeProduct {
		if err := s.removeProductMetafields(ctx, shop, bundle.ProductIDs); err != nil {
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
	if bundle.TriggerType == enums.TriggerTypeProduct {
		if err := s.removeProductMetafields(ctx, shop, bundle.ProductIDs); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, bundle.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting volume bundle")
	}
	return s.syncAggregate(ctx, shop)
}

func (s *service) createRemoteDiscount(ctx context.Context, shop string, bundle *models.VolumeBundle) error {
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

func (s *service) pushRemoteDiscount(ctx context.Context, shop string, bundle *models.VolumeBundle) error {
	if err := s.api.UpdateDiscountTitle(ctx, shop, *bundle.DiscountID, bundle.Name); err != nil {
		return err
	}
	config, err := discount.Encode(Compile(bundle))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding discount configuration")
	}
	return s.api.SetDiscountConfig(ctx, shop, *bundle.DiscountID, config)
}

func (s *service) writeProductMetafields(ctx context.Context, shop string, bundle *models.VolumeBundle) error {
	if bundle.TriggerType != enums.TriggerTypeProduct {
		return nil
	}
	raw, err := json.Marshal(s.projector.productPayload(bundle))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding bundle metafield")
	}
	for _, productID := range bundle.ProductIDs {
		if err := s.api.SetMetafield(ctx, shop, productID, shopify.BundleNamespace, productConfigKey, string(raw)); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) removeProductMetafields(ctx context.Context, shop string, productIDs []string) error {
	for _, productID := range productIDs {
		if err := s.api.DeleteProductMetafield(ctx, shop, productID, shopify.BundleNamespace, productConfigKey); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) syncAggregate(ctx context.Context, shop string) error {
	bundles, err := s.repo.ListAggregate(ctx, shop)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing active volume bundles")
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

func (s *service) find(ctx context.Context, shop string, id uuid.UUID) (*models.VolumeBundle, error) {
	bundle, err := s.repo.FindByID(ctx, shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "volume bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading volume bundle")
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

// applyInput validates the payload and stores the resolved product set:
// merchant-picked ids for product triggers, live collection members for
// collection triggers. Resolution failures degrade to the submitted ids.
func (s *service) applyInput(ctx context.Context, shop string, bundle *models.VolumeBundle, input *BundleInput) error {
	triggerType, err := enums.ParseTriggerType(input.TriggerType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trigger type")
	}
	if triggerType == enums.TriggerTypeCollection && input.TriggerReference == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "collection trigger requires a reference")
	}
	stored := make([]TierEntry, 0, len(input.Tiers))
	for _, tier := range input.Tiers {
		stored = append(stored, TierEntry{
			Label:       tier.Label,
			Qty:         tier.Qty,
			DiscountPct: tier.DiscountPct,
			Popular:     tier.Popular,
		})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding volume tiers")
	}

	productIDs := input.ProductIDs
	if triggerType == enums.TriggerTypeCollection && input.TriggerReference != nil {
		resolved, err := s.api.CollectionProductIDs(ctx, shop, *input.TriggerReference)
		if err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "resolving collection products failed")
		} else {
			productIDs = resolved
		}
	}

	bundle.Name = input.Name
	bundle.TriggerType = triggerType
	bundle.TriggerReference = input.TriggerReference
	bundle.ProductIDs = pq.StringArray(productIDs)
	if bundle.ProductIDs == nil {
		bundle.ProductIDs = pq.StringArray{}
	}
	bundle.VolumeTiers = string(raw)
	bundle.DesignConfig = input.DesignConfig
	return nil
}
