package profile

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PGStore is the Postgres-backed profile store for shared deployments.
// A save rewrites the profile's field and source rows inside one
// transaction, so readers see either the old profile or the new one.
type PGStore struct {
	pool *pgxpool.Pool
}

// ConnectPGStore creates a pgx pool and runs schema migrations.
func ConnectPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("profile postgres connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PGStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Create initializes an empty profile from the schema for kind and inserts it.
func (s *PGStore) Create(ctx context.Context, kind Kind, name string) (*Profile, error) {
	p, err := New(kind, name, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO profiles (kind, name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		string(kind), name, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("store: insert profile: %w", err)
	}
	return p, nil
}

// Load rebuilds a profile from its rows, overlaying stored fields and
// sources onto the schema skeleton so shape stays schema-driven.
func (s *PGStore) Load(ctx context.Context, id int64) (*Profile, error) {
	var (
		p    Profile
		kind string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, name, created_at, updated_at FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &kind, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load profile %d: %w", id, err)
	}

	skeleton, err := New(Kind(kind), p.Name, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Kind = Kind(kind)
	p.Sections = skeleton.Sections

	rows, err := s.pool.Query(ctx,
		`SELECT section, subsection, field_key, full_context, summary, synthesis_version, last_synthesized_at
		 FROM fields WHERE profile_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("store: load fields for %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sec, sub, key, fullContext, summary string
			version                             int
			synthesizedAt                       *time.Time
		)
		if err := rows.Scan(&sec, &sub, &key, &fullContext, &summary, &version, &synthesizedAt); err != nil {
			return nil, fmt.Errorf("store: scan field: %w", err)
		}
		f, err := p.Field(SectionKey(sec), SubsectionKey(sub), FieldKey(key))
		if err != nil {
			slog.Warn("stored field no longer in schema, skipping",
				slog.String("target", sec+"/"+sub+"/"+key))
			continue
		}
		f.FullContext = fullContext
		f.Summary = summary
		f.SynthesisVersion = version
		f.LastSynthesizedAt = synthesizedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate fields: %w", err)
	}

	srcRows, err := s.pool.Query(ctx,
		`SELECT source_id, section, subsection, field_key, raw_content, captured_at, input_type, snippet, confidence
		 FROM sources WHERE profile_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("store: load sources for %d: %w", id, err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var (
			src           Source
			sec, sub, key string
			inputType     string
		)
		if err := srcRows.Scan(&src.ID, &sec, &sub, &key, &src.RawContent, &src.CapturedAt,
			&inputType, &src.Snippet, &src.Confidence); err != nil {
			return nil, fmt.Errorf("store: scan source: %w", err)
		}
		src.InputType = InputType(inputType)
		f, err := p.Field(SectionKey(sec), SubsectionKey(sub), FieldKey(key))
		if err != nil {
			continue
		}
		f.Sources = append(f.Sources, src)
	}
	if err := srcRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate sources: %w", err)
	}

	return &p, nil
}

// Save rewrites the profile's rows in one transaction.
func (s *PGStore) Save(ctx context.Context, p *Profile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE profiles SET name = $1, updated_at = $2 WHERE id = $3`,
		p.Name, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("store: update profile %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrProfileNotFound, p.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM fields WHERE profile_id = $1`, p.ID); err != nil {
		return fmt.Errorf("store: clear fields: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sources WHERE profile_id = $1`, p.ID); err != nil {
		return fmt.Errorf("store: clear sources: %w", err)
	}

	for _, sec := range p.Sections {
		for _, sub := range sec.Subsections {
			for _, f := range sub.Fields {
				if f.SynthesisVersion == 0 && len(f.Sources) == 0 {
					continue // empty fields live only in the schema skeleton
				}
				if _, err := tx.Exec(ctx,
					`INSERT INTO fields (profile_id, section, subsection, field_key, full_context, summary, synthesis_version, last_synthesized_at)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
					p.ID, string(sec.Key), string(sub.Key), string(f.Key),
					f.FullContext, f.Summary, f.SynthesisVersion, f.LastSynthesizedAt); err != nil {
					return fmt.Errorf("store: insert field %s: %w", f.Key, err)
				}
				for pos, src := range f.Sources {
					if _, err := tx.Exec(ctx,
						`INSERT INTO sources (profile_id, source_id, section, subsection, field_key, raw_content, captured_at, input_type, snippet, confidence, position)
						 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
						p.ID, src.ID, string(sec.Key), string(sub.Key), string(f.Key),
						src.RawContent, src.CapturedAt, string(src.InputType),
						src.Snippet, src.Confidence, pos); err != nil {
						return fmt.Errorf("store: insert source %s: %w", src.ID, err)
					}
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

// List returns all profiles, most recently updated first.
func (s *PGStore) List(ctx context.Context) ([]ProfileInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, updated_at FROM profiles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileInfo
	for rows.Next() {
		var (
			info ProfileInfo
			kind string
		)
		if err := rows.Scan(&info.ID, &kind, &info.Name, &info.UpdatedAt); err != nil {
			continue
		}
		info.Kind = Kind(kind)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
