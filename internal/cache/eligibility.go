package cache

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"

	"github.com/veritak-io/azpim/internal/graph/models"
)

// DirectoryEligibilityLister mirrors the Graph client's eligibility listing
// to avoid import cycles.
type DirectoryEligibilityLister interface {
	ListEligibilityScheduleInstances(ctx context.Context, principalID string) ([]models.EligibilityScheduleInstance, error)
}

// SubscriptionEligibilityLister mirrors the ARM service's eligibility listing
// to avoid import cycles.
type SubscriptionEligibilityLister interface {
	ListEligibility(ctx context.Context) ([]*armauthorization.RoleEligibilityScheduleInstance, error)
}

// Logger interface for cache chatter. Satisfied by *logrus.Logger.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// nopLogger discards all log output.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

// CachedEligibilityLister decorates eligibility listers with file-based
// caching. Eligibility changes rarely, so cached listings keep repeated
// `list` invocations fast. Activation always queries live.
type CachedEligibilityLister struct {
	directoryInner    DirectoryEligibilityLister
	subscriptionInner SubscriptionEligibilityLister
	subscriptionID    string
	store             *Store
	refresh           bool
	log               Logger
}

// NewCachedEligibilityLister creates a new caching decorator.
// Either inner may be nil if that backend is not configured.
// When refresh is true, the cache read is bypassed but the API response is still cached.
// Logger is optional; pass nil for silent operation.
func NewCachedEligibilityLister(
	directoryInner DirectoryEligibilityLister,
	subscriptionInner SubscriptionEligibilityLister,
	subscriptionID string,
	store *Store,
	refresh bool,
	log Logger,
) *CachedEligibilityLister {
	if log == nil {
		log = nopLogger{}
	}
	return &CachedEligibilityLister{
		directoryInner:    directoryInner,
		subscriptionInner: subscriptionInner,
		subscriptionID:    subscriptionID,
		store:             store,
		refresh:           refresh,
		log:               log,
	}
}

// ListEligibilityScheduleInstances checks the cache first, then falls through
// to the Graph client.
func (c *CachedEligibilityLister) ListEligibilityScheduleInstances(ctx context.Context, principalID string) ([]models.EligibilityScheduleInstance, error) {
	if c.directoryInner == nil {
		return nil, fmt.Errorf("directory eligibility listing not available")
	}

	key := directoryEligibilityCacheKey(principalID)

	if c.refresh {
		c.log.Debugf("cache refresh requested for directory eligibility, bypassing cache")
	} else {
		var cached []models.EligibilityScheduleInstance
		if Get(c.store, key, &cached) {
			c.log.Debugf("cache hit for directory eligibility (%d instances)", len(cached))
			return cached, nil
		}
		c.log.Debugf("cache miss for directory eligibility, fetching from API")
	}

	instances, err := c.directoryInner.ListEligibilityScheduleInstances(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if err := Set(c.store, key, instances); err != nil {
		c.log.Debugf("cache write failed for directory eligibility: %v", err)
	} else {
		c.log.Debugf("cached directory eligibility (%d instances)", len(instances))
	}

	return instances, nil
}

// ListEligibility checks the cache first, then falls through to the ARM
// service.
func (c *CachedEligibilityLister) ListEligibility(ctx context.Context) ([]*armauthorization.RoleEligibilityScheduleInstance, error) {
	if c.subscriptionInner == nil {
		return nil, fmt.Errorf("subscription eligibility listing not available")
	}

	key := subscriptionEligibilityCacheKey(c.subscriptionID)

	if c.refresh {
		c.log.Debugf("cache refresh requested for subscription eligibility, bypassing cache")
	} else {
		var cached []*armauthorization.RoleEligibilityScheduleInstance
		if Get(c.store, key, &cached) {
			c.log.Debugf("cache hit for subscription eligibility (%d instances)", len(cached))
			return cached, nil
		}
		c.log.Debugf("cache miss for subscription eligibility, fetching from API")
	}

	instances, err := c.subscriptionInner.ListEligibility(ctx)
	if err != nil {
		return nil, err
	}

	if err := Set(c.store, key, instances); err != nil {
		c.log.Debugf("cache write failed for subscription eligibility: %v", err)
	} else {
		c.log.Debugf("cached subscription eligibility (%d instances)", len(instances))
	}

	return instances, nil
}

func directoryEligibilityCacheKey(principalID string) string {
	return "directory_eligibility_" + principalID
}

func subscriptionEligibilityCacheKey(subscriptionID string) string {
	return "subscription_eligibility_" + subscriptionID
}
