package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/model"
	"annotate-cli/internal/mutate"
	"annotate-cli/internal/perm"
	"annotate-cli/internal/spanutil"
)

const (
	StatusInitialized = "initialized"
	StatusProgress    = "progress"
)

// Workspace is an offline annotation backend in a local SQLite file. It
// enforces the same rules as the server: agreed spans are locked, offsets must
// fit the text, and only the creator (or an admin) may change a span.
type Workspace struct {
	store       Store
	annotatorID string
	admin       bool

	// Now is the clock used for timestamps.
	Now func() time.Time
}

var _ gateway.Gateway = (*Workspace)(nil)

func NewWorkspace(s Store, annotatorID string, admin bool) *Workspace {
	return &Workspace{store: s, annotatorID: strings.TrimSpace(annotatorID), admin: admin, Now: time.Now}
}

func (w *Workspace) AnnotatorID() string { return w.annotatorID }

func (w *Workspace) nowMillis() int64 {
	if w.Now == nil {
		return time.Now().UnixMilli()
	}
	return w.Now().UnixMilli()
}

func (w *Workspace) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func spanNotFound(id string) error {
	return &gateway.ValidationError{Status: 404, Detail: "Annotation not found: " + id}
}

func forbidden() error {
	return &gateway.ValidationError{Status: 403, Detail: "Not enough permissions"}
}

func locked(id string) error {
	return fmt.Errorf("%w: annotation %s", gateway.ErrLocked, id)
}

// rejected converts a client-side mutate error into what a backend would answer.
func rejected(err error) error {
	var ve mutate.ValidationError
	if errors.As(err, &ve) {
		return &gateway.ValidationError{Status: 422, Detail: ve.Error()}
	}
	var le mutate.LockedError
	if errors.As(err, &le) {
		return locked(le.SpanID)
	}
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const spanSelect = `SELECT a.id, a.text_id, a.annotator_id, a.annotation_type, a.level, a.name,
	a.selected_text, a.start_position, a.end_position, a.confidence,
	EXISTS(SELECT 1 FROM reviews r WHERE r.annotation_id = a.id AND r.decision = 'agree')
	FROM annotations a`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpan(r rowScanner) (model.Span, string, error) {
	var (
		id     int64
		textID string
		level  string
		name   sql.NullString
		agreed int
		s      model.Span
	)
	if err := r.Scan(&id, &textID, &s.AnnotatorID, &s.Type, &level, &name, &s.Text, &s.Start, &s.End, &s.Confidence, &agreed); err != nil {
		return model.Span{}, "", err
	}
	s.ID = strconv.FormatInt(id, 10)
	s.Level = model.Level(level)
	if name.Valid && name.String != "" {
		n := name.String
		s.Name = &n
	}
	s.IsAgreed = agreed != 0
	return s, textID, nil
}

func parseSpanID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	return n, err == nil && n > 0
}

func loadSpan(ctx context.Context, q queryer, id string) (model.Span, string, error) {
	n, ok := parseSpanID(id)
	if !ok {
		return model.Span{}, "", spanNotFound(id)
	}
	s, textID, err := scanSpan(q.QueryRowContext(ctx, spanSelect+` WHERE a.id = ?;`, n))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Span{}, "", spanNotFound(id)
	}
	if err != nil {
		return model.Span{}, "", err
	}
	reviews, err := loadReviews(ctx, q, []int64{n})
	if err != nil {
		return model.Span{}, "", err
	}
	s.Reviews = reviews[s.ID]
	return s, textID, nil
}

func loadContent(ctx context.Context, q queryer, textID string) ([]rune, error) {
	var content string
	err := q.QueryRowContext(ctx, `SELECT content FROM texts WHERE id = ?;`, textID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mutate.NotFoundError{Kind: "text", ID: textID}
	}
	if err != nil {
		return nil, err
	}
	return []rune(content), nil
}

func loadReviews(ctx context.Context, q queryer, annotationIDs []int64) (map[string][]model.Review, error) {
	out := map[string][]model.Review{}
	if len(annotationIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(annotationIDs))
	marks := make([]string, len(annotationIDs))
	for i, id := range annotationIDs {
		args[i] = id
		marks[i] = "?"
	}
	rows, err := q.QueryContext(ctx, `SELECT id, annotation_id, reviewer_id, decision, comment, created_at_unixms
		FROM reviews WHERE annotation_id IN (`+strings.Join(marks, ",")+`)
		ORDER BY created_at_unixms, id;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r       model.Review
			annID   int64
			comment sql.NullString
			ms      int64
		)
		if err := rows.Scan(&r.ID, &annID, &r.ReviewerID, &r.Decision, &comment, &ms); err != nil {
			return nil, err
		}
		if comment.Valid {
			c := comment.String
			r.Comment = &c
		}
		r.CreatedAt = time.UnixMilli(ms).UTC()
		key := strconv.FormatInt(annID, 10)
		out[key] = append(out[key], r)
	}
	return out, rows.Err()
}

func nullable(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}

func (w *Workspace) saveSpan(ctx context.Context, tx *sql.Tx, s model.Span) error {
	n, _ := parseSpanID(s.ID)
	_, err := tx.ExecContext(ctx, `UPDATE annotations SET annotation_type = ?, level = ?, name = ?,
		selected_text = ?, start_position = ?, end_position = ?, updated_at_unixms = ?
		WHERE id = ?;`,
		s.Type, string(s.Level), nullable(s.Name), s.Text, s.Start, s.End, w.nowMillis(), n)
	return err
}

// guard loads a span for modification, refusing agreed spans and spans the
// annotator does not own.
func (w *Workspace) guard(ctx context.Context, tx *sql.Tx, id string) (model.Span, string, error) {
	s, textID, err := loadSpan(ctx, tx, id)
	if err != nil {
		return model.Span{}, "", err
	}
	if s.IsAgreed {
		return model.Span{}, "", locked(id)
	}
	if !perm.CanModifyAs(s, w.annotatorID, w.admin) {
		return model.Span{}, "", forbidden()
	}
	return s, textID, nil
}

func (w *Workspace) Create(ctx context.Context, textID string, d model.Draft) (model.Span, error) {
	var out model.Span
	err := w.withTx(ctx, func(tx *sql.Tx) error {
		content, err := loadContent(ctx, tx, textID)
		if err != nil {
			var nf mutate.NotFoundError
			if errors.As(err, &nf) {
				return &gateway.ValidationError{Status: 404, Detail: nf.Error()}
			}
			return err
		}
		d, err := mutate.ValidateDraft(d, len(content))
		if err != nil {
			return rejected(err)
		}
		now := w.nowMillis()
		snapshot := spanutil.Slice(content, d.Start, d.End)
		res, err := tx.ExecContext(ctx, `INSERT INTO annotations(text_id, annotator_id, annotation_type, level, name,
			selected_text, start_position, end_position, confidence, created_at_unixms, updated_at_unixms)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			textID, w.annotatorID, d.Type, string(d.Level), nullable(d.Name), snapshot, d.Start, d.End, d.Confidence, now, now)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE texts SET status = ? WHERE id = ? AND status = ?;`,
			StatusProgress, textID, StatusInitialized); err != nil {
			return err
		}
		out, _, err = loadSpan(ctx, tx, strconv.FormatInt(id, 10))
		return err
	})
	return out, err
}

func (w *Workspace) Update(ctx context.Context, spanID string, p model.Patch) (model.Span, error) {
	var out model.Span
	err := w.withTx(ctx, func(tx *sql.Tx) error {
		s, _, err := w.guard(ctx, tx, spanID)
		if err != nil {
			return err
		}
		res, err := mutate.ApplyPatch(s, p)
		if err != nil {
			return rejected(err)
		}
		if res.Changed {
			if err := w.saveSpan(ctx, tx, res.Span); err != nil {
				return err
			}
		}
		out = res.Span
		return nil
	})
	return out, err
}

func (w *Workspace) UpdateHeaderSpan(ctx context.Context, spanID string, start, end int) (model.Span, error) {
	var out model.Span
	err := w.withTx(ctx, func(tx *sql.Tx) error {
		s, textID, err := w.guard(ctx, tx, spanID)
		if err != nil {
			return err
		}
		content, err := loadContent(ctx, tx, textID)
		if err != nil {
			return err
		}
		res, err := mutate.Reposition(s, start, end, content)
		if err != nil {
			return rejected(err)
		}
		if res.Changed {
			if err := w.saveSpan(ctx, tx, res.Span); err != nil {
				return err
			}
		}
		out = res.Span
		return nil
	})
	return out, err
}

func (w *Workspace) Remove(ctx context.Context, spanID string) error {
	return w.withTx(ctx, func(tx *sql.Tx) error {
		s, textID, err := w.guard(ctx, tx, spanID)
		if err != nil {
			return err
		}
		n, _ := parseSpanID(s.ID)
		if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?;`, n); err != nil {
			return err
		}
		return resetStatusIfEmpty(ctx, tx, textID)
	})
}

// RemoveMine deletes the annotator's spans on a text. Agreed spans are kept.
func (w *Workspace) RemoveMine(ctx context.Context, textID string) (int, error) {
	if w.annotatorID == "" {
		return 0, &gateway.ValidationError{Status: 400, Detail: "annotator id is not configured"}
	}
	var count int
	err := w.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM annotations
			WHERE text_id = ? AND annotator_id = ?
			AND NOT EXISTS(SELECT 1 FROM reviews r WHERE r.annotation_id = annotations.id AND r.decision = 'agree');`,
			textID, w.annotatorID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		count = int(n)
		return resetStatusIfEmpty(ctx, tx, textID)
	})
	return count, err
}

func resetStatusIfEmpty(ctx context.Context, tx *sql.Tx, textID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE texts SET status = ?
		WHERE id = ? AND NOT EXISTS(SELECT 1 FROM annotations WHERE text_id = ?);`,
		StatusInitialized, textID, textID)
	return err
}

// ImportText stores a text. An empty id gets a generated one.
func (w *Workspace) ImportText(ctx context.Context, t model.Text) (model.Text, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		id, err := newPersistedID(kindText)
		if err != nil {
			return model.Text{}, err
		}
		t.ID = id
	}
	if strings.TrimSpace(t.Title) == "" {
		return model.Text{}, errors.New("text title is empty")
	}
	if t.Content == "" {
		return model.Text{}, errors.New("text content is empty")
	}
	t.Status = StatusInitialized
	err := w.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO texts(id, title, content, language, status, created_at_unixms)
			VALUES(?, ?, ?, ?, ?, ?);`, t.ID, t.Title, t.Content, t.Language, t.Status, w.nowMillis())
		return err
	})
	if err != nil {
		return model.Text{}, fmt.Errorf("import text %s: %w", t.ID, err)
	}
	return t, nil
}

func scanText(r rowScanner) (model.Text, error) {
	var t model.Text
	err := r.Scan(&t.ID, &t.Title, &t.Content, &t.Language, &t.Status)
	return t, err
}

func (w *Workspace) Text(ctx context.Context, id string) (model.Text, error) {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return model.Text{}, err
	}
	defer db.Close()
	t, err := scanText(db.QueryRowContext(ctx, `SELECT id, title, content, language, status FROM texts WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Text{}, mutate.NotFoundError{Kind: "text", ID: id}
	}
	return t, err
}

func (w *Workspace) Texts(ctx context.Context) ([]model.Text, error) {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT id, title, content, language, status FROM texts ORDER BY created_at_unixms, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Text{}
	for rows.Next() {
		t, err := scanText(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Annotations lists a text's spans in position order, reviews included.
func (w *Workspace) Annotations(ctx context.Context, textID string) ([]model.Span, error) {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return annotations(ctx, db, textID)
}

func annotations(ctx context.Context, q queryer, textID string) ([]model.Span, error) {
	rows, err := q.QueryContext(ctx, spanSelect+` WHERE a.text_id = ? ORDER BY a.start_position, a.end_position DESC, a.id;`, textID)
	if err != nil {
		return nil, err
	}
	var (
		out []model.Span
		ids []int64
	)
	for rows.Next() {
		s, _, err := scanSpan(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		n, _ := parseSpanID(s.ID)
		ids = append(ids, n)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	reviews, err := loadReviews(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Reviews = reviews[out[i].ID]
	}
	if out == nil {
		out = []model.Span{}
	}
	return out, nil
}

func (w *Workspace) TextWithAnnotations(ctx context.Context, textID string) (model.Text, []model.Span, error) {
	t, err := w.Text(ctx, textID)
	if err != nil {
		return model.Text{}, nil, err
	}
	spans, err := w.Annotations(ctx, textID)
	if err != nil {
		return model.Text{}, nil, err
	}
	return t, spans, nil
}

func (w *Workspace) Reviews(ctx context.Context, spanID string) ([]model.Review, error) {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	s, _, err := loadSpan(ctx, db, spanID)
	if err != nil {
		return nil, err
	}
	if s.Reviews == nil {
		return []model.Review{}, nil
	}
	return s.Reviews, nil
}

// AddReview records a reviewer decision. One agree review locks the span.
func (w *Workspace) AddReview(ctx context.Context, spanID, reviewerID string, decision model.Decision, comment *string) (model.Review, error) {
	switch decision {
	case model.DecisionAgree, model.DecisionDisagree:
	default:
		return model.Review{}, &gateway.ValidationError{Status: 422, Detail: fmt.Sprintf("decision must be agree or disagree (got %q)", decision)}
	}
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		reviewerID = w.annotatorID
	}
	if reviewerID == "" {
		return model.Review{}, &gateway.ValidationError{Status: 400, Detail: "reviewer id is not configured"}
	}
	id, err := newPersistedID(kindReview)
	if err != nil {
		return model.Review{}, err
	}
	r := model.Review{ID: id, Decision: decision, ReviewerID: reviewerID}
	if c := nullable(comment); c != nil {
		s := c.(string)
		r.Comment = &s
	}
	ms := w.nowMillis()
	r.CreatedAt = time.UnixMilli(ms).UTC()

	err = w.withTx(ctx, func(tx *sql.Tx) error {
		s, _, err := loadSpan(ctx, tx, spanID)
		if err != nil {
			return err
		}
		n, _ := parseSpanID(s.ID)
		_, err = tx.ExecContext(ctx, `INSERT INTO reviews(id, annotation_id, reviewer_id, decision, comment, created_at_unixms)
			VALUES(?, ?, ?, ?, ?, ?);`, r.ID, n, r.ReviewerID, string(r.Decision), nullable(r.Comment), ms)
		return err
	})
	if err != nil {
		return model.Review{}, err
	}
	return r, nil
}

// SaveCatalog stores a catalog under an annotation list type id.
func (w *Workspace) SaveCatalog(ctx context.Context, typeID string, c *catalog.Catalog) error {
	typeID = strings.TrimSpace(typeID)
	if typeID == "" {
		return errors.New("catalog type id is empty")
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return w.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO catalogs(type_id, json, updated_at_unixms) VALUES(?, ?, ?)
			ON CONFLICT(type_id) DO UPDATE SET json = excluded.json, updated_at_unixms = excluded.updated_at_unixms;`,
			typeID, string(b), w.nowMillis())
		return err
	})
}

// FetchCatalog implements catalog.Fetcher.
func (w *Workspace) FetchCatalog(ctx context.Context, typeID string) (*catalog.Catalog, error) {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var raw string
	err = db.QueryRowContext(ctx, `SELECT json FROM catalogs WHERE type_id = ?;`, typeID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mutate.NotFoundError{Kind: "catalog", ID: typeID}
	}
	if err != nil {
		return nil, err
	}
	return catalog.Parse(strings.NewReader(raw))
}

// CatalogTypes lists stored catalog type ids.
func (w *Workspace) CatalogTypes(ctx context.Context) ([]string, error) {
	db, err := w.store.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT type_id FROM catalogs ORDER BY type_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
