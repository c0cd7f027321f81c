package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"authgate/internal/identity/models"
	platformneo4j "authgate/internal/platform/neo4j"
	"authgate/pkg/platform/sentinel"
)

// Neo4j is the graph-backed credential store. All queries are parameterized;
// uniqueness is enforced by store-level constraints so concurrent
// registrations cannot both win the check-then-create race.
type Neo4j struct {
	client *platformneo4j.Client
}

// NewNeo4j constructs a Neo4j-backed store.
func NewNeo4j(client *platformneo4j.Client) *Neo4j {
	return &Neo4j{client: client}
}

// EnsureConstraints creates the unique constraints on email and name. Run once
// at startup; IF NOT EXISTS makes it idempotent.
func (s *Neo4j) EnsureConstraints(ctx context.Context) error {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT user_email_key_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email_key IS UNIQUE",
		"CREATE CONSTRAINT user_name_key_unique IF NOT EXISTS FOR (u:User) REQUIRE u.name_key IS UNIQUE",
	}
	for _, stmt := range constraints {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure constraint: %w", err)
		}
	}
	return nil
}

// Lookups match on the normalized key properties; the name and email
// properties themselves keep the casing the record was created with.
const (
	findByEmailQuery = "MATCH (u:User {email_key: $value}) " +
		"RETURN u.id AS id, u.name AS name, u.email AS email, " +
		"u.credential_hash AS credential_hash, u.created_at AS created_at"
	findByNameQuery = "MATCH (u:User {name_key: $value}) " +
		"RETURN u.id AS id, u.name AS name, u.email AS email, " +
		"u.credential_hash AS credential_hash, u.created_at AS created_at"
)

func (s *Neo4j) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, findByEmailQuery, normalize(email), "email")
}

func (s *Neo4j) FindByName(ctx context.Context, name string) (*models.User, error) {
	return s.findOne(ctx, findByNameQuery, normalize(name), "name")
}

func (s *Neo4j) findOne(ctx context.Context, query, value, field string) (*models.User, error) {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"value": value})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, sentinel.ErrNotFound
		}
		return userFromRecord(records[0])
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by %s: %w", field, err)
	}
	return result.(*models.User), nil
}

func (s *Neo4j) Create(ctx context.Context, user *models.User) error {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"CREATE (u:User {id: $id, name: $name, name_key: $name_key, "+
				"email: $email, email_key: $email_key, "+
				"credential_hash: $credential_hash, created_at: $created_at}) RETURN u.id",
			map[string]any{
				"id":              user.ID,
				"name":            user.Name,
				"name_key":        normalize(user.Name),
				"email":           user.Email,
				"email_key":       normalize(user.Email),
				"credential_hash": user.CredentialHash,
				"created_at":      user.CreatedAt.UTC(),
			})
		if err != nil {
			return nil, err
		}
		_, err = res.Single(ctx)
		return nil, err
	})
	if err != nil {
		if isConstraintViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var neoErr *db.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.Contains(neoErr.Code, "ConstraintValidationFailed")
	}
	return false
}

func userFromRecord(record *db.Record) (*models.User, error) {
	id, err := stringValue(record, "id")
	if err != nil {
		return nil, err
	}
	name, err := stringValue(record, "name")
	if err != nil {
		return nil, err
	}
	email, err := stringValue(record, "email")
	if err != nil {
		return nil, err
	}
	hash, err := stringValue(record, "credential_hash")
	if err != nil {
		return nil, err
	}

	u := &models.User{ID: id, Name: name, Email: email, CredentialHash: hash}
	if raw, ok := record.Get("created_at"); ok {
		if t, ok := raw.(time.Time); ok {
			u.CreatedAt = t
		}
	}
	return u, nil
}

func stringValue(record *db.Record, key string) (string, error) {
	raw, ok := record.Get(key)
	if !ok {
		return "", fmt.Errorf("record missing %s", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("record field %s is not a string", key)
	}
	return value, nil
}
