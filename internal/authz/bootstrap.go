package authz

import (
	"fmt"

	"github.com/tixgate/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 租户成员角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.MemberRoleStaff,
			Policies: []Policy{
				{Object: "/payments/initiate", Action: "POST"},
				{Object: "/payments/:id/status", Action: "GET"},
				{Object: "/payment-providers/available", Action: "GET"},
			},
		},
		{
			Role:     constants.MemberRoleFinance,
			Inherits: []string{constants.MemberRoleStaff},
			Policies: []Policy{
				{Object: "/payments", Action: "GET"},
				{Object: "/payment-providers", Action: "GET"},
				{Object: "/payment-providers/:id", Action: "GET"},
			},
		},
		{
			Role:     constants.MemberRoleOwner,
			Inherits: []string{constants.MemberRoleFinance},
			Policies: []Policy{
				{Object: "/payment-providers", Action: "*"},
				{Object: "/payment-providers/:id", Action: "*"},
				{Object: "/payment-providers/:id/default", Action: "POST"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略（幂等）
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
