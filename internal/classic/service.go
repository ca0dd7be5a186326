package classic

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

const family = "classic"

// AdminAPI is the Admin API slice the classic orchestrator needs.
type AdminAPI interface {
	DiscountFunctionID(ctx context.Context, shop string) (string, error)
	CreateDiscount(ctx context.Context, shop string, input shopify.DiscountInput) (string, error)
	UpdateDiscount(ctx context.Context, shop, discountGID, title, configJSON string) error
	SetDiscountDates(ctx context.Context, shop, discountGID string, startsAt, endsAt *time.Time) error
	DeleteDiscount(ctx context.Context, shop, discountGID string) error
	SetMetafield(ctx context.Context, shop, ownerGID, namespace, key, valueJSON string) error
	DeleteProductMetafield(ctx context.Context, shop, productGID, namespace, key string) error
	ShopGID(ctx context.Context, shop string) (string, error)
}

// Service orchestrates classic bundle CRUD against the local store and the
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
	projector *projector
	logger    *logger.Logger
	metrics   *metrics.SyncMetrics
	now       func() time.Time
}

// NewService wires the classic bundle service.
func NewService(repo Repository, api AdminAPI, catalogSvc catalog.Service, logg *logger.Logger, syncMetrics *metrics.SyncMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("classic: repository is required")
	}
	if api == nil {
		return nil, errors.New("classic: admin api is required")
	}
	if catalogSvc == nil {
		return nil, errors.New("classic: catalog service is required")
	}
	if logg == nil {
		return nil, errors.New("classic: logger is required")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing bundles")
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

	resp := toResponse(bundle)

	// Detail reads feed the edit form, which needs live display data for
	// the referenced products.
	ids := []string{bundle.GetProductID}
	if bundle.BuyType == enums.BuyTypeProduct {
		ids = append(ids, bundle.BuyReference)
	}
	snapshots := s.projector.catalog.Snapshots(ctx, shop, ids)
	resp.Products = make(map[string]*catalog.Snapshot, len(snapshots))
	for gid, snap := range snapshots {
		if snap != nil {
			resp.Products[gid] = snap
		}
	}

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

func (s *service) create(ctx context.Context, shop string, input BundleInput) (*models.Bundle, error) {
	bundle := &models.Bundle{ShopID: shop, Active: true}
	if err := applyInput(bundle, &input); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating bundle")
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	// On failure the row stays with a null discount id; the next edit retries.
	if err := s.createRemoteDiscount(ctx, shop, bundle); err != nil {
		return nil, err
	}

	if bundle.BuyType == enums.BuyTypeProduct {
		if err := s.writeProductMetafield(ctx, shop, bundle); err != nil {
			return nil, err
		}
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

func (s *service) update(ctx context.Context, shop string, id uuid.UUID, input BundleInput) (*models.Bundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	prevBuyType := bundle.BuyType
	prevBuyReference := bundle.BuyReference

	if err := applyInput(bundle, &input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, bundle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating bundle")
	}
	ctx = s.logger.WithBundle(ctx, family, bundle.ID.String())

	if bundle.DiscountID != nil {
		config, err := discount.Encode(Compile(bundle))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding discount configuration")
		}
		if err := s.api.UpdateDiscount(ctx, shop, *bundle.DiscountID, bundle.Name, config); err != nil {
			return nil, err
		}
	} else if err := s.createRemoteDiscount(ctx, shop, bundle); err != nil {
		// Recreating a discount that never materialized is best effort.
		s.logger.Warn(ctx, "recreating missing discount failed")
	}

	replaced := bundle.BuyType != enums.BuyTypeProduct || bundle.BuyReference != prevBuyReference
	if prevBuyType == enums.BuyTypeProduct && replaced {
		if err := s.api.DeleteProductMetafield(ctx, shop, prevBuyReference, shopify.BundleNamespace, productConfigKey); err != nil {
			return nil, err
		}
	}
	if bundle.BuyType == enums.BuyTypeProduct {
		if err := s.writeProductMetafield(ctx, shop, bundle); err != nil {
			return nil, err
		}
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

func (s *service) toggle(ctx context.Context, shop string, id uuid.UUID) (*models.Bundle, error) {
	bundle, err := s.find(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	active := !bundle.Active
	if err := s.repo.SetActive(ctx, bundle.ID, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggling bundle")
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

	if bundle.BuyType == enums.BuyTypeProduct {
		if active {
			if err := s.writeProductMetafield(ctx, shop, bundle); err != nil {
				return nil, err
			}
		} else if err := s.api.DeleteProductMetafield(ctx, shop, bundle.BuyReference, shopify.BundleNamespace, productConfigKey); err != nil {
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
	if bundle.BuyType == enums.BuyTypeProduct {
		if err := s.api.DeleteProductMetafield(ctx, shop, bundle.BuyReference, shopify.BundleNamespace, productConfigKey); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, bundle.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting bundle")
	}
	return s.syncAggregate(ctx, shop)
}

func (s *service) createRemoteDiscount(ctx context.Context, shop string, bundle *models.Bundle) error {
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

func (s *service) writeProductMetafield(ctx context.Context, shop string, bundle *models.Bundle) error {
	payload := s.projector.productPayload(ctx, shop, bundle)
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding bundle metafield")
	}
	return s.api.SetMetafield(ctx, shop, bundle.BuyReference, shopify.BundleNamespace, productConfigKey, string(raw))
}

func (s *service) syncAggregate(ctx context.Context, shop string) error {
	bundles, err := s.repo.ListActive(ctx, shop)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing active bundles")
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

func (s *service) find(ctx context.Context, shop string, id uuid.UUID) (*models.Bundle, error) {
	bundle, err := s.repo.FindByID(ctx, shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading bundle")
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

func applyInput(bundle *models.Bundle, input *BundleInput) error {
	buyType, err := enums.ParseBuyType(input.BuyType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buy type")
	}
	discountType, err := enums.ParseDiscountType(input.DiscountType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	bundle.Name = input.Name
	bundle.BuyType = buyType
	bundle.BuyReference = input.BuyReference
	bundle.MinQuantity = input.MinQuantity
	bundle.GetProductID = input.GetProductID
	bundle.DiscountType = discountType
	bundle.DiscountValue = input.DiscountValue
	bundle.MaxReward = input.MaxReward
	bundle.DesignConfig = input.DesignConfig
	return nil
}
