package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "operations",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/menu/categories", Action: "*"},
				{Object: "/admin/menu/categories/:id", Action: "*"},
				{Object: "/admin/menu/items", Action: "*"},
				{Object: "/admin/menu/items/:id", Action: "*"},
				{Object: "/admin/tables", Action: "*"},
				{Object: "/admin/tables/:id", Action: "*"},
				{Object: "/admin/tables/:id/status", Action: "*"},
				{Object: "/admin/reservations", Action: "GET"},
				{Object: "/admin/reservations/:id/confirm", Action: "POST"},
				{Object: "/admin/reservations/:id/seat", Action: "POST"},
				{Object: "/admin/reservations/:id/complete", Action: "POST"},
				{Object: "/admin/reservations/:id/cancel", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/complete", Action: "POST"},
				{Object: "/admin/orders/:id/cancel", Action: "POST"},
				{Object: "/admin/reviews", Action: "GET"},
				{Object: "/admin/reviews/:id/approve", Action: "POST"},
				{Object: "/admin/reviews/:id/reject", Action: "POST"},
				{Object: "/admin/reviews/:id/adopt", Action: "POST"},
				{Object: "/admin/users", Action: "GET"},
				{Object: "/admin/users/:id", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "points_admin",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/points/rules", Action: "*"},
				{Object: "/admin/points/rules/:key", Action: "*"},
				{Object: "/admin/points/levels", Action: "*"},
				{Object: "/admin/points/levels/resync", Action: "POST"},
				{Object: "/admin/points/accounts", Action: "GET"},
				{Object: "/admin/points/accounts/:user_id", Action: "GET"},
				{Object: "/admin/points/accounts/:user_id/adjust", Action: "POST"},
				{Object: "/admin/points/transactions", Action: "GET"},
				{Object: "/admin/points/statistics", Action: "GET"},
				{Object: "/admin/points/anomalies", Action: "GET"},
			},
			Immutable: true,
		},
	}
}

// isImmutableBuiltinRole 判断是否为不可删除的预置角色
func isImmutableBuiltinRole(normalized string) bool {
	for _, seed := range BuiltinRoleSeeds() {
		if !seed.Immutable {
			continue
		}
		seedRole, err := NormalizeRole(seed.Role)
		if err != nil {
			continue
		}
		if seedRole == normalized {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
			if err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.saveAndReload()
	}
	return nil
}
