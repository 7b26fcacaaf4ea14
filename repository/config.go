package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"github.com/halvard-io/authcore"
)

// Core config lives in the same key/value table as the opaque external
// config, separated by scope.
const (
	scopeCore     = "core"
	scopeExternal = "external"

	keyLoginAllowed   = "login_allowed"
	keyLifetimePrefix = "lifetime."
)

func (s *Store) UpdateConfig(ctx context.Context, update authcore.AuthConfigUpdate, overwrite bool) error {
	rows := []*configModel{}
	if update.LoginAllowed != nil {
		rows = append(rows, &configModel{
			Scope: scopeCore,
			Key:   keyLoginAllowed,
			Value: strconv.FormatBool(*update.LoginAllowed),
		})
	}
	for t, lt := range update.TokenLifetimes {
		rows = append(rows, &configModel{
			Scope: scopeCore,
			Key:   keyLifetimePrefix + string(t),
			Value: strconv.FormatInt(lt.Milliseconds(), 10),
		})
	}
	for k, v := range update.External {
		rows = append(rows, &configModel{Scope: scopeExternal, Key: k, Value: v})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, row := range rows {
			q := tx.NewInsert().Model(row)
			if overwrite {
				q = q.On("CONFLICT (scope, key) DO UPDATE").
					Set("value = EXCLUDED.value")
			} else {
				q = q.On("CONFLICT DO NOTHING")
			}
			if _, err := q.Exec(ctx); err != nil {
				return storageError(err, "failed to write config")
			}
		}
		return nil
	})
}

func (s *Store) GetConfig(ctx context.Context) (authcore.AuthConfig, map[string]string, error) {
	var rows []configModel
	if err := s.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return authcore.AuthConfig{}, nil, storageError(err, "failed to load config")
	}
	cfg := authcore.AuthConfig{TokenLifetimes: map[authcore.TokenType]time.Duration{}}
	external := map[string]string{}
	for _, row := range rows {
		switch row.Scope {
		case scopeExternal:
			external[row.Key] = row.Value
		case scopeCore:
			if row.Key == keyLoginAllowed {
				allowed, err := strconv.ParseBool(row.Value)
				if err != nil {
					continue
				}
				cfg.LoginAllowed = &allowed
				continue
			}
			if len(row.Key) > len(keyLifetimePrefix) && row.Key[:len(keyLifetimePrefix)] == keyLifetimePrefix {
				ms, err := strconv.ParseInt(row.Value, 10, 64)
				if err != nil || ms <= 0 {
					continue
				}
				t := authcore.TokenType(row.Key[len(keyLifetimePrefix):])
				if t.IsValid() {
					cfg.TokenLifetimes[t] = time.Duration(ms) * time.Millisecond
				}
			}
		}
	}
	return cfg, external, nil
}
