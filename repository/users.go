package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/halvard-io/authcore"
)

func (s *Store) CreateLocalUser(ctx context.Context, user *authcore.LocalUser, creds authcore.PasswordHashAndSalt) error {
	if user == nil {
		return errors.New("user is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkCustomRolesDefined(ctx, tx, user.CustomRoles); err != nil {
			return err
		}
		m := &userModel{
			UserName:      user.UserName.String(),
			DisplayName:   string(user.DisplayName),
			Email:         string(user.Email),
			Created:       toMillis(user.Created),
			LastLogin:     toMillisPtr(user.LastLogin),
			Local:         true,
			PasswordHash:  creds.Hash,
			PasswordSalt:  creds.Salt,
			ForcePwdReset: user.ForcePasswordReset,
		}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			if isUniqueViolation(err, "users") {
				return authcore.ErrUserExists
			}
			return storageError(err, "failed to insert user")
		}
		return insertUserSets(ctx, tx, &user.AuthUser)
	})
}

func (s *Store) GetLocalUser(ctx context.Context, name authcore.UserName) (*authcore.LocalUser, error) {
	m, err := s.loadUser(ctx, name)
	if err != nil {
		if errors.Is(err, authcore.ErrNoSuchUser) {
			return nil, authcore.ErrNoSuchLocalUser
		}
		return nil, err
	}
	if !m.Local {
		return nil, authcore.ErrNoSuchLocalUser
	}
	u, err := toAuthUser(m)
	if err != nil {
		return nil, err
	}
	return &authcore.LocalUser{AuthUser: *u, ForcePasswordReset: m.ForcePwdReset}, nil
}

func (s *Store) GetPasswordHashAndSalt(ctx context.Context, name authcore.UserName) (authcore.PasswordHashAndSalt, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).
		Column("password_hash", "password_salt").
		Where("user_name = ? AND is_local", name.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.PasswordHashAndSalt{}, authcore.ErrNoSuchLocalUser
		}
		return authcore.PasswordHashAndSalt{}, storageError(err, "failed to load credential")
	}
	return authcore.PasswordHashAndSalt{Hash: m.PasswordHash, Salt: m.PasswordSalt}, nil
}

func (s *Store) ChangePassword(ctx context.Context, name authcore.UserName, creds authcore.PasswordHashAndSalt, forceReset bool) error {
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("password_hash = ?", creds.Hash).
		Set("password_salt = ?", creds.Salt).
		Set("force_password_reset = ?", forceReset).
		Where("user_name = ? AND is_local", name.String()).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to change password")
	}
	return noSuchLocalUserOnZero(res)
}

func (s *Store) ForcePasswordReset(ctx context.Context, name authcore.UserName) error {
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("force_password_reset = ?", true).
		Where("user_name = ? AND is_local", name.String()).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to flag password reset")
	}
	return noSuchLocalUserOnZero(res)
}

func (s *Store) ForcePasswordResetAll(ctx context.Context) error {
	_, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("force_password_reset = ?", true).
		Where("is_local").
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to flag password resets")
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *authcore.NewUser) error {
	if user == nil {
		return errors.New("user is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	remote := user.Identity()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkCustomRolesDefined(ctx, tx, user.CustomRoles); err != nil {
			return err
		}
		m := &userModel{
			UserName:    user.UserName.String(),
			DisplayName: string(user.DisplayName),
			Email:       string(user.Email),
			Created:     toMillis(user.Created),
			LastLogin:   toMillisPtr(user.LastLogin),
			Local:       false,
		}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			if isUniqueViolation(err, "users") {
				return authcore.ErrUserExists
			}
			return storageError(err, "failed to insert user")
		}
		idn := &identityModel{
			Provider:       remote.ID.Provider,
			ProviderUserID: remote.ID.ProviderUserID,
			UserName:       user.UserName.String(),
			Username:       remote.Details.Username,
			FullName:       remote.Details.FullName,
			Email:          remote.Details.Email,
		}
		if _, err := tx.NewInsert().Model(idn).Exec(ctx); err != nil {
			if isUniqueViolation(err, "identities") {
				return authcore.ErrIdentityLinked
			}
			return storageError(err, "failed to insert identity")
		}
		return insertUserSets(ctx, tx, &user.AuthUser)
	})
}

func (s *Store) DisableAccount(ctx context.Context, name authcore.UserName, admin authcore.UserName, reason string) error {
	now := toMillis(s.now())
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("disabled_reason = ?", reason).
		Set("disabled_by = ?", admin.String()).
		Set("disabled_at = ?", now).
		Where("user_name = ?", name.String()).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to disable account")
	}
	return noSuchUserOnZero(res)
}

func (s *Store) EnableAccount(ctx context.Context, name authcore.UserName, admin authcore.UserName) error {
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("disabled_reason = ?", "").
		Set("disabled_by = ?", "").
		Set("disabled_at = NULL").
		Where("user_name = ?", name.String()).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to enable account")
	}
	return noSuchUserOnZero(res)
}

func (s *Store) GetUser(ctx context.Context, name authcore.UserName) (*authcore.AuthUser, error) {
	m, err := s.loadUser(ctx, name)
	if err != nil {
		return nil, err
	}
	return toAuthUser(m)
}

func (s *Store) GetUserByIdentity(ctx context.Context, remote authcore.RemoteIdentity) (*authcore.AuthUser, error) {
	idn := new(identityModel)
	err := s.db.NewSelect().Model(idn).
		Where("provider = ? AND provider_user_id = ?", remote.ID.Provider, remote.ID.ProviderUserID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(err, "failed to load identity")
	}
	// Provider details drift; the stored copy follows the latest report.
	if idn.Username != remote.Details.Username ||
		idn.FullName != remote.Details.FullName ||
		idn.Email != remote.Details.Email {
		_, err := s.db.NewUpdate().Model((*identityModel)(nil)).
			Set("username = ?", remote.Details.Username).
			Set("full_name = ?", remote.Details.FullName).
			Set("email = ?", remote.Details.Email).
			Where("provider = ? AND provider_user_id = ?", remote.ID.Provider, remote.ID.ProviderUserID).
			Exec(ctx)
		if err != nil {
			return nil, storageError(err, "failed to refresh identity details")
		}
	}
	return s.GetUser(ctx, authcore.UserName(idn.UserName))
}

func (s *Store) GetUserDisplayNames(ctx context.Context, names []authcore.UserName) (map[authcore.UserName]authcore.DisplayName, error) {
	out := map[authcore.UserName]authcore.DisplayName{}
	if len(names) == 0 {
		return out, nil
	}
	raw := make([]string, len(names))
	for i, n := range names {
		raw[i] = n.String()
	}
	var models []userModel
	err := s.db.NewSelect().Model(&models).
		Column("user_name", "display_name").
		Where("user_name IN (?)", bun.In(raw)).
		Where("disabled_at IS NULL").
		Scan(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load display names")
	}
	for _, m := range models {
		out[authcore.UserName(m.UserName)] = authcore.DisplayName(m.DisplayName)
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, name authcore.UserName, update authcore.UserUpdate) error {
	if !update.HasUpdates() {
		return nil
	}
	q := s.db.NewUpdate().Model((*userModel)(nil)).
		Where("user_name = ?", name.String())
	if update.DisplayName != nil {
		q = q.Set("display_name = ?", string(*update.DisplayName))
	}
	if update.Email != nil {
		q = q.Set("email = ?", string(*update.Email))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return storageError(err, "failed to update user")
	}
	return noSuchUserOnZero(res)
}

func (s *Store) SetLastLogin(ctx context.Context, name authcore.UserName, lastLogin time.Time) error {
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("last_login = ?", toMillis(lastLogin)).
		Where("user_name = ?", name.String()).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to set last login")
	}
	return noSuchUserOnZero(res)
}

func (s *Store) AddPolicyIDs(ctx context.Context, name authcore.UserName, policyIDs []authcore.PolicyID) error {
	if len(policyIDs) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkUserExists(ctx, tx, name); err != nil {
			return err
		}
		rows := make([]*userPolicyModel, len(policyIDs))
		for i, id := range policyIDs {
			rows[i] = &userPolicyModel{UserName: name.String(), PolicyID: string(id)}
		}
		_, err := tx.NewInsert().Model(&rows).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return storageError(err, "failed to add policy ids")
		}
		return nil
	})
}

func (s *Store) RemovePolicyID(ctx context.Context, policyID authcore.PolicyID) error {
	_, err := s.db.NewDelete().Model((*userPolicyModel)(nil)).
		Where("policy_id = ?", string(policyID)).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to remove policy id")
	}
	return nil
}

func (s *Store) Link(ctx context.Context, name authcore.UserName, remote authcore.RemoteIdentity) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		u := new(userModel)
		err := tx.NewSelect().Model(u).
			Column("user_name", "is_local").
			Where("user_name = ?", name.String()).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return authcore.ErrNoSuchUser
			}
			return storageError(err, "failed to load user")
		}
		if u.Local {
			return authcore.ErrLinkFailed
		}
		existing := new(identityModel)
		err = tx.NewSelect().Model(existing).
			Where("provider = ? AND provider_user_id = ?", remote.ID.Provider, remote.ID.ProviderUserID).
			Scan(ctx)
		if err == nil {
			if existing.UserName != name.String() {
				return authcore.ErrIdentityLinked
			}
			_, err := tx.NewUpdate().Model((*identityModel)(nil)).
				Set("username = ?", remote.Details.Username).
				Set("full_name = ?", remote.Details.FullName).
				Set("email = ?", remote.Details.Email).
				Where("provider = ? AND provider_user_id = ?", remote.ID.Provider, remote.ID.ProviderUserID).
				Exec(ctx)
			if err != nil {
				return storageError(err, "failed to refresh identity details")
			}
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storageError(err, "failed to load identity")
		}
		idn := &identityModel{
			Provider:       remote.ID.Provider,
			ProviderUserID: remote.ID.ProviderUserID,
			UserName:       name.String(),
			Username:       remote.Details.Username,
			FullName:       remote.Details.FullName,
			Email:          remote.Details.Email,
		}
		if _, err := tx.NewInsert().Model(idn).Exec(ctx); err != nil {
			if isUniqueViolation(err, "identities") {
				return authcore.ErrIdentityLinked
			}
			return storageError(err, "failed to insert identity")
		}
		return nil
	})
}

func (s *Store) Unlink(ctx context.Context, name authcore.UserName, id authcore.RemoteIdentityID) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		u := new(userModel)
		err := tx.NewSelect().Model(u).
			Column("user_name", "is_local").
			Where("user_name = ?", name.String()).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return authcore.ErrNoSuchUser
			}
			return storageError(err, "failed to load user")
		}
		if u.Local {
			return authcore.ErrUnlinkFailed
		}
		var ids []identityModel
		if err := tx.NewSelect().Model(&ids).
			Where("user_name = ?", name.String()).
			Scan(ctx); err != nil {
			return storageError(err, "failed to load identities")
		}
		held := false
		for _, i := range ids {
			if i.Provider == id.Provider && i.ProviderUserID == id.ProviderUserID {
				held = true
				break
			}
		}
		if !held {
			return authcore.ErrNoSuchIdentity
		}
		// An account must always retain one authentication method.
		if len(ids) == 1 {
			return authcore.ErrUnlinkFailed
		}
		_, err = tx.NewDelete().Model((*identityModel)(nil)).
			Where("provider = ? AND provider_user_id = ? AND user_name = ?",
				id.Provider, id.ProviderUserID, name.String()).
			Exec(ctx)
		if err != nil {
			return storageError(err, "failed to unlink identity")
		}
		return nil
	})
}

func (s *Store) loadUser(ctx context.Context, name authcore.UserName) (*userModel, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).
		Relation("Roles").
		Relation("CustomRoles").
		Relation("PolicyIDs").
		Relation("Identities").
		Where("usr.user_name = ?", name.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrNoSuchUser
		}
		return nil, storageError(err, "failed to load user")
	}
	return m, nil
}

// toAuthUser rebuilds the domain record through its constructor so a
// corrupted row cannot smuggle an illegal state past the invariants.
func toAuthUser(m *userModel) (*authcore.AuthUser, error) {
	opts := []authcore.AuthUserOption{}
	if m.Email != "" {
		opts = append(opts, authcore.WithEmail(authcore.EmailAddress(m.Email)))
	}
	if m.Local {
		opts = append(opts, authcore.WithLocal())
	}
	if m.LastLogin != nil {
		opts = append(opts, authcore.WithLastLogin(fromMillis(*m.LastLogin)))
	}
	if m.isDisabled() {
		opts = append(opts, authcore.WithDisabledState(authcore.UserDisabledState{
			Reason:     m.DisabledReason,
			DisabledBy: authcore.UserName(m.DisabledBy),
			Time:       fromMillis(*m.DisabledAt),
		}))
	}
	for _, r := range m.Roles {
		opts = append(opts, authcore.WithRole(authcore.Role(r.Role)))
	}
	for _, r := range m.CustomRoles {
		opts = append(opts, authcore.WithCustomRoles(r.RoleID))
	}
	for _, p := range m.PolicyIDs {
		opts = append(opts, authcore.WithPolicyIDs(authcore.PolicyID(p.PolicyID)))
	}
	for _, i := range m.Identities {
		opts = append(opts, authcore.WithIdentities(authcore.RemoteIdentity{
			ID: authcore.RemoteIdentityID{
				Provider:       i.Provider,
				ProviderUserID: i.ProviderUserID,
			},
			Details: authcore.RemoteIdentityDetails{
				Username: i.Username,
				FullName: i.FullName,
				Email:    i.Email,
			},
		}))
	}
	u, err := authcore.NewAuthUser(
		authcore.UserName(m.UserName),
		authcore.DisplayName(m.DisplayName),
		fromMillis(m.Created),
		opts...,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "stored user record is invalid").
			WithTextCode(authcore.TextCodeConsistency).
			WithCode(errors.CodeInternal)
	}
	return u, nil
}

func insertUserSets(ctx context.Context, tx bun.Tx, u *authcore.AuthUser) error {
	name := u.UserName.String()
	for _, r := range u.Roles {
		m := &userRoleModel{UserName: name, Role: string(r)}
		if _, err := tx.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return storageError(err, "failed to insert role")
		}
	}
	for _, r := range u.CustomRoles {
		m := &userCustomRoleModel{UserName: name, RoleID: r}
		if _, err := tx.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return storageError(err, "failed to insert custom role")
		}
	}
	for _, p := range u.PolicyIDs {
		m := &userPolicyModel{UserName: name, PolicyID: string(p)}
		if _, err := tx.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return storageError(err, "failed to insert policy id")
		}
	}
	return nil
}

func checkUserExists(ctx context.Context, idb bun.IDB, name authcore.UserName) error {
	exists, err := idb.NewSelect().Model((*userModel)(nil)).
		Where("user_name = ?", name.String()).
		Exists(ctx)
	if err != nil {
		return storageError(err, "failed to check user")
	}
	if !exists {
		return authcore.ErrNoSuchUser
	}
	return nil
}

func checkCustomRolesDefined(ctx context.Context, idb bun.IDB, roleIDs []string) error {
	for _, id := range roleIDs {
		exists, err := idb.NewSelect().Model((*customRoleModel)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return storageError(err, "failed to check custom role")
		}
		if !exists {
			return authcore.ErrNoSuchRole
		}
	}
	return nil
}

func noSuchUserOnZero(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err, "failed to read affected rows")
	}
	if n == 0 {
		return authcore.ErrNoSuchUser
	}
	return nil
}

func noSuchLocalUserOnZero(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err, "failed to read affected rows")
	}
	if n == 0 {
		return authcore.ErrNoSuchLocalUser
	}
	return nil
}
