// Package access decides what a user may see. Admin bypasses grants for
// any active target; every other role only sees what it was explicitly
// granted. Group and dashboard grants are independent axes: granting a
// group does not grant the dashboards inside it. That is deliberate,
// documented policy, not an oversight.
package access

import (
	"context"
	"sort"

	"github.com/mahosalu/estadisticas/internal/database/models"
	"gorm.io/gorm"
)

// CanViewGroup answers whether the user may open a group. The user's
// Groups association must be loaded.
func CanViewGroup(user *models.User, group *models.Group) bool {
	if user.Role.BypassesGrants() {
		return group.IsActive
	}
	for _, g := range user.Groups {
		if g.ID == group.ID {
			return true
		}
	}
	return false
}

// CanViewDashboard answers whether the user may open a dashboard.
// Inactive dashboards are invisible to everyone in the viewer, Admin
// included. The user's Dashboards association must be loaded.
func CanViewDashboard(user *models.User, dashboard *models.Dashboard) bool {
	if !dashboard.IsActive {
		return false
	}
	if user.Role.BypassesGrants() {
		return true
	}
	for _, d := range user.Dashboards {
		if d.ID == dashboard.ID {
			return true
		}
	}
	return false
}

// Evaluator computes the filtered listings a user may browse.
type Evaluator struct {
	db *gorm.DB
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db}
}

// VisibleGroups lists the groups the user may browse, by display order.
// Admin sees every active group; readers see exactly their granted set.
func (e *Evaluator) VisibleGroups(ctx context.Context, user *models.User) ([]models.Group, error) {
	if user.Role.BypassesGrants() {
		var groups []models.Group
		err := e.db.WithContext(ctx).
			Where("is_active = ?", true).
			Order("orden ASC, created_at ASC").
			Find(&groups).Error
		return groups, err
	}

	// The join table carries no ordering, so sort the granted set here.
	groups := make([]models.Group, len(user.Groups))
	copy(groups, user.Groups)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Orden < groups[j].Orden
	})
	return groups, nil
}

// VisibleDashboards lists the active dashboards of a group the user may
// open, by display order. For readers this is the intersection of the
// group's active dashboards with the granted set.
func (e *Evaluator) VisibleDashboards(ctx context.Context, user *models.User, group *models.Group) ([]models.Dashboard, error) {
	var dashboards []models.Dashboard
	err := e.db.WithContext(ctx).
		Where("group_id = ? AND is_active = ?", group.ID, true).
		Order("orden ASC, created_at ASC").
		Find(&dashboards).Error
	if err != nil {
		return nil, err
	}

	if user.Role.BypassesGrants() {
		return dashboards, nil
	}

	granted := make(map[string]struct{}, len(user.Dashboards))
	for _, d := range user.Dashboards {
		granted[d.ID.String()] = struct{}{}
	}

	visible := dashboards[:0]
	for _, d := range dashboards {
		if _, ok := granted[d.ID.String()]; ok {
			visible = append(visible, d)
		}
	}
	return visible, nil
}
