package tiered

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

const family = "tiered"

// AdminAPI is the Admin API slice the tiered orchestrator needs. Collection
// triggers resolve their product set at sync time.
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

// Service orchestrates tiered bundle CRUD against the local store and the
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

// NewService wires the tiered bundle service.
func NewService(repo Repository, api AdminAPI, logg *logger.Logger, syncMetrics *metrics.SyncMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("tiered: repository is required")
	}
	if api == nil {
		return nil, errors.New("tiered: admin api is required")
	}
	if logg == nil {
		return nil, errors.New("tiered: logger is required")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing tiered bundles")
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

func (s *service) create(ctx context.Context, shop string, input BundleInput) (*models.TieredBundle, error) {
	bundle := &models.TieredBundle{ShopID: shop, Active: true}
	if err := applyInput(bundle, &input); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tiered bundle")
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	// On failure the row stays with a null discount id; the next edit retries.
	if err := s.createRemoteDiscount(ctx, shop, bundle); err != nil {
		return nil, err
	}

	if err := s.writeProductMetafields(ctx, shop, bundle, bundle.ProductIDs); err != nil {
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

func (s *service) update(ctx context.Context, shop string, id uuid.UUID, input BundleInput) (*models.TieredBundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	prevTriggerType := bundle.TriggerType
	prevProductIDs := append([]string{}, bundle.ProductIDs...)

	if err := applyInput(bundle, &input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating tiered bundle")
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
		stale := prevProductIDs
		if bundle.TriggerType == enums.TriggerTypeProduct {
			stale = difference(prevProductIDs, bundle.ProductIDs)
		}
		if err := s.removeProductMetafields(ctx, shop, stale); err != nil {
			return nil, err
		}
	}
	if err := s.writeProductMetafields(ctx, shop, bundle, bundle.ProductIDs); err != nil {
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

func (s *service) toggle(ctx context.Context, shop string, id uuid.UUID) (*models.TieredBundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	active := !bundle.Active
	if err := s.repo.SetActive(ctx, bundle.ID, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggling tiered bundle")
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
		if err := s.writeProductMetafields(ctx, shop, bundle, bundle.ProductIDs); err != nil {
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
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting tiered bundle")
	}
	return s.syncAggregate(ctx, shop)
}

// resolveProductIDs returns the product set the discount covers. Collection
// triggers read the live collection; failures degrade to the stored set so a
// transient Admin API error never compiles an empty discount.
func (s *service) resolveProductIDs(ctx context.Context, shop string, bundle *models.TieredBundle) []string {
	if bundle.TriggerType == enums.TriggerTypeCollection && bundle.TriggerReference != nil {
		ids, err := s.api.CollectionProductIDs(ctx, shop, *bundle.TriggerReference)
		if err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "resolving collection products failed")
			return []string(bundle.ProductIDs)
		}
		return ids
	}
	return []string(bundle.ProductIDs)
}

func (s *service) createRemoteDiscount(ctx context.Context, shop string, bundle *models.TieredBundle) error {
	functionID, err := s.api.DiscountFunctionID(ctx, shop)
	if err != nil {
		return err
	}
	config, err := discount.Encode(Compile(bundle, s.resolveProductIDs(ctx, shop, bundle)))
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

func (s *service) pushRemoteDiscount(ctx context.Context, shop string, bundle *models.TieredBundle) error {
	if err := s.api.UpdateDiscountTitle(ctx, shop, *bundle.DiscountID, bundle.Name); err != nil {
		return err
	}
	config, err := discount.Encode(Compile(bundle, s.resolveProductIDs(ctx, shop, bundle)))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding discount configuration")
	}
	return s.api.SetDiscountConfig(ctx, shop, *bundle.DiscountID, config)
}

func (s *service) writeProductMetafields(ctx context.Context, shop string, bundle *models.TieredBundle, productIDs []string) error {
	if bundle.TriggerType != enums.TriggerTypeProduct {
		return nil
	}
	raw, err := json.Marshal(s.projector.productPayload(bundle))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding bundle metafield")
	}
	for _, productID := range productIDs {
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
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing active tiered bundles")
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

func (s *service) find(ctx context.Context, shop string, id uuid.UUID) (*models.TieredBundle, error) {
	bundle, err := s.repo.FindByID(ctx, shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tiered bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tiered bundle")
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

func applyInput(bundle *models.TieredBundle, input *BundleInput) error {
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
			BuyQty:      tier.BuyQty,
			FreeQty:     tier.FreeQty,
			DiscountPct: tier.DiscountPct,
		})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding tiers")
	}
	bundle.Name = input.Name
	bundle.TriggerType = triggerType
	bundle.TriggerReference = input.TriggerReference
	bundle.ProductIDs = pq.StringArray(input.ProductIDs)
	if bundle.ProductIDs == nil {
		bundle.ProductIDs = pq.StringArray{}
	}
	bundle.TiersConfig = string(raw)
	bundle.DesignConfig = input.DesignConfig
	return nil
}

// difference returns the members of prev missing from next.
func difference(prev, next []string) []string {
	keep := make(map[string]struct{}, len(next))
	for _, id := range next {
		keep[id] = struct{}{}
	}
	out := make([]string, 0, len(prev))
	for _, id := range prev {
		if _, ok := keep[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
