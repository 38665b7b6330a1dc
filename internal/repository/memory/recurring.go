package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

type RecurringRepository struct {
	store *Store
}

func (r *RecurringRepository) Create(ctx context.Context, rule *model.RecurringAvailability) error {
	return r.store.run(ctx, func(d *state) error {
		d.nextRuleID++
		now := time.Now().UTC()
		rule.ID = d.nextRuleID
		rule.CreatedAt = now
		rule.UpdatedAt = now
		stored := *rule
		d.rules[rule.ID] = &stored
		return nil
	})
}

func (r *RecurringRepository) GetByGroupID(ctx context.Context, groupID string) ([]*model.RecurringAvailability, error) {
	return r.list(ctx, func(rule *model.RecurringAvailability) bool {
		return rule.GroupID.String() == groupID
	})
}

func (r *RecurringRepository) GetAllActive(ctx context.Context) ([]*model.RecurringAvailability, error) {
	return r.list(ctx, func(rule *model.RecurringAvailability) bool {
		return rule.IsActive
	})
}

func (r *RecurringRepository) DeactivateByGroupID(ctx context.Context, groupID string) error {
	return r.store.run(ctx, func(d *state) error {
		for _, rule := range d.rules {
			if rule.GroupID.String() == groupID {
				rule.IsActive = false
				rule.UpdatedAt = time.Now().UTC()
			}
		}
		return nil
	})
}

func (r *RecurringRepository) list(ctx context.Context, match func(*model.RecurringAvailability) bool) ([]*model.RecurringAvailability, error) {
	var rules []*model.RecurringAvailability
	err := r.store.run(ctx, func(d *state) error {
		for _, rule := range d.rules {
			if match(rule) {
				c := *rule
				rules = append(rules, &c)
			}
		}
		return nil
	})
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, err
}
