package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/halvard-io/authcore"
)

func (s *Store) StoreToken(ctx context.Context, token authcore.StoredToken, hash authcore.HashedToken) error {
	m := &tokenModel{
		ID:        token.ID,
		Hash:      string(hash),
		TokenType: string(token.Type),
		TokenName: token.TokenName,
		UserName:  token.UserName.String(),
		Created:   toMillis(token.Created),
		Expires:   toMillis(token.Expires),
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		if isUniqueViolation(err, "tokens") {
			return authcore.ErrTokenAlreadyExists
		}
		return storageError(err, "failed to store token")
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, hash authcore.HashedToken) (authcore.StoredToken, error) {
	m := new(tokenModel)
	err := s.db.NewSelect().Model(m).
		Where("hash = ?", string(hash)).
		Where("expires > ?", toMillis(s.now())).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.StoredToken{}, authcore.ErrNoSuchToken
		}
		return authcore.StoredToken{}, storageError(err, "failed to load token")
	}
	return toStoredToken(m), nil
}

func (s *Store) GetTokens(ctx context.Context, name authcore.UserName) ([]authcore.StoredToken, error) {
	var models []tokenModel
	err := s.db.NewSelect().Model(&models).
		Where("user_name = ?", name.String()).
		Where("expires > ?", toMillis(s.now())).
		Order("created ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load tokens")
	}
	out := make([]authcore.StoredToken, len(models))
	for i := range models {
		out[i] = toStoredToken(&models[i])
	}
	return out, nil
}

func (s *Store) DeleteToken(ctx context.Context, name authcore.UserName, tokenID uuid.UUID) error {
	res, err := s.db.NewDelete().Model((*tokenModel)(nil)).
		Where("user_name = ? AND id = ?", name.String(), tokenID).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to delete token")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err, "failed to read affected rows")
	}
	if n == 0 {
		return authcore.ErrNoSuchToken
	}
	return nil
}

func (s *Store) DeleteTokens(ctx context.Context, name authcore.UserName) error {
	_, err := s.db.NewDelete().Model((*tokenModel)(nil)).
		Where("user_name = ?", name.String()).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to delete tokens")
	}
	return nil
}

func (s *Store) DeleteAllTokens(ctx context.Context) error {
	_, err := s.db.NewDelete().Model((*tokenModel)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to delete all tokens")
	}
	return nil
}

func (s *Store) StoreIdentitiesTemporarily(ctx context.Context, token authcore.TemporaryHashedToken, ids []authcore.RemoteIdentityWithLocalID) error {
	if ids == nil {
		ids = []authcore.RemoteIdentityWithLocalID{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return storageError(err, "failed to encode identities")
	}
	return s.storeTempToken(ctx, &tempTokenModel{
		ID:         token.ID,
		Hash:       string(token.Hash),
		Created:    toMillis(token.Created),
		Expires:    toMillis(token.Expires),
		Identities: payload,
	})
}

func (s *Store) StoreErrorTemporarily(ctx context.Context, token authcore.TemporaryHashedToken, errorMsg string, errorCode string) error {
	return s.storeTempToken(ctx, &tempTokenModel{
		ID:        token.ID,
		Hash:      string(token.Hash),
		Created:   toMillis(token.Created),
		Expires:   toMillis(token.Expires),
		Error:     errorMsg,
		ErrorCode: errorCode,
	})
}

func (s *Store) storeTempToken(ctx context.Context, m *tempTokenModel) error {
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		if isUniqueViolation(err, "temp_tokens") {
			return authcore.ErrTokenAlreadyExists
		}
		return storageError(err, "failed to store temporary token")
	}
	return nil
}

func (s *Store) GetTemporaryIdentities(ctx context.Context, hash authcore.HashedToken) (authcore.TemporaryIdentities, error) {
	m := new(tempTokenModel)
	err := s.db.NewSelect().Model(m).
		Where("hash = ?", string(hash)).
		Where("expires > ?", toMillis(s.now())).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.TemporaryIdentities{}, authcore.ErrNoSuchToken
		}
		return authcore.TemporaryIdentities{}, storageError(err, "failed to load temporary token")
	}
	out := authcore.TemporaryIdentities{
		ID:        m.ID,
		Created:   fromMillis(m.Created),
		Expires:   fromMillis(m.Expires),
		Error:     m.Error,
		ErrorCode: m.ErrorCode,
	}
	if m.Error == "" {
		if err := json.Unmarshal(m.Identities, &out.Identities); err != nil {
			return authcore.TemporaryIdentities{}, errors.Wrap(err,
				errors.CategoryInternal, "stored identity set is invalid").
				WithTextCode(authcore.TextCodeConsistency).
				WithCode(errors.CodeInternal)
		}
	}
	return out, nil
}

func (s *Store) DeleteTemporaryIdentities(ctx context.Context, hash authcore.HashedToken) error {
	_, err := s.db.NewDelete().Model((*tempTokenModel)(nil)).
		Where("hash = ?", string(hash)).
		Exec(ctx)
	if err != nil {
		return storageError(err, "failed to delete temporary token")
	}
	return nil
}

func toStoredToken(m *tokenModel) authcore.StoredToken {
	return authcore.StoredToken{
		Type:      authcore.TokenType(m.TokenType),
		ID:        m.ID,
		TokenName: m.TokenName,
		UserName:  authcore.UserName(m.UserName),
		Created:   fromMillis(m.Created),
		Expires:   fromMillis(m.Expires),
	}
}
