package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/halvard-io/authcore"
)

func (s *Store) UpdateRoles(ctx context.Context, name authcore.UserName, add []authcore.Role, remove []authcore.Role) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkUserExists(ctx, tx, name); err != nil {
			return err
		}
		removed := map[authcore.Role]bool{}
		for _, r := range remove {
			removed[r] = true
			_, err := tx.NewDelete().Model((*userRoleModel)(nil)).
				Where("user_name = ? AND role = ?", name.String(), string(r)).
				Exec(ctx)
			if err != nil {
				return storageError(err, "failed to remove role")
			}
		}
		for _, r := range add {
			// A role in both sets is removed.
			if removed[r] {
				continue
			}
			m := &userRoleModel{UserName: name.String(), Role: string(r)}
			if _, err := tx.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
				return storageError(err, "failed to add role")
			}
		}
		return nil
	})
}

func (s *Store) SetCustomRole(ctx context.Context, role authcore.CustomRole) error {
	m := &customRoleModel{ID: role.ID, Description: role.Description}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("description = EXCLUDED.description").
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to set custom role")
	}
	return nil
}

func (s *Store) DeleteCustomRole(ctx context.Context, roleID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*customRoleModel)(nil)).
			Where("id = ?", roleID).
			Exec(ctx)
		if err != nil {
			return storageError(err, "failed to delete custom role")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageError(err, "failed to read affected rows")
		}
		if n == 0 {
			return authcore.ErrNoSuchRole
		}
		_, err = tx.NewDelete().Model((*userCustomRoleModel)(nil)).
			Where("role_id = ?", roleID).
			Exec(ctx)
		if err != nil {
			return storageError(err, "failed to strip custom role")
		}
		return nil
	})
}

func (s *Store) GetCustomRoles(ctx context.Context) ([]authcore.CustomRole, error) {
	var models []customRoleModel
	err := s.db.NewSelect().Model(&models).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load custom roles")
	}
	out := make([]authcore.CustomRole, len(models))
	for i, m := range models {
		out[i] = authcore.CustomRole{ID: m.ID, Description: m.Description}
	}
	return out, nil
}

func (s *Store) UpdateCustomRoles(ctx context.Context, name authcore.UserName, add []string, remove []string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkUserExists(ctx, tx, name); err != nil {
			return err
		}
		if err := checkCustomRolesDefined(ctx, tx, append(append([]string{}, add...), remove...)); err != nil {
			return err
		}
		removed := map[string]bool{}
		for _, id := range remove {
			removed[id] = true
			_, err := tx.NewDelete().Model((*userCustomRoleModel)(nil)).
				Where("user_name = ? AND role_id = ?", name.String(), id).
				Exec(ctx)
			if err != nil {
				return storageError(err, "failed to remove custom role")
			}
		}
		for _, id := range add {
			if removed[id] {
				continue
			}
			m := &userCustomRoleModel{UserName: name.String(), RoleID: id}
			if _, err := tx.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
				return storageError(err, "failed to add custom role")
			}
		}
		return nil
	})
}
