package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lcensies/task-trackers-synchronizer/internal/docstore"
	"github.com/lcensies/task-trackers-synchronizer/internal/issue"
	"github.com/lcensies/task-trackers-synchronizer/internal/rule"
)

var (
	ErrRuleExists    = errors.New("rule already exists")
	ErrRuleNotFound  = errors.New("rule not found")
	ErrIssueNotFound = errors.New("issue not found")
	// ErrMalformedIssue marks a stored issue that does not parse as an issue.
	ErrMalformedIssue = errors.New("malformed issue")
)

// Service implements rule and issue operations on a document database.
type Service struct {
	db docstore.Database

	// serializes check-then-insert on rules
	rulesMu sync.Mutex
	newID   func() string
}

func New(db docstore.Database) *Service {
	return &Service{db: db, newID: func() string { return uuid.NewString() }}
}

func (s *Service) GetRules(ctx context.Context) ([]rule.Rule, error) {
	docs, err := s.db.GetAll(ctx, docstore.TableRules)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	out := make([]rule.Rule, 0, len(docs))
	for _, d := range docs {
		out = append(out, rule.FromDocument(d))
	}
	return out, nil
}

// AddRule stores r under a fresh ID. A rule with the same source, dest and
// project is reported as ErrRuleExists.
func (s *Service) AddRule(ctx context.Context, r rule.Rule) (rule.Rule, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return rule.Rule{}, err
	}

	s.rulesMu.Lock()
	defer s.rulesMu.Unlock()

	docs, err := s.db.Find(ctx, docstore.TableRules, r.Key())
	if err != nil {
		return rule.Rule{}, fmt.Errorf("find rule: %w", err)
	}
	for _, d := range docs {
		if existing := rule.FromDocument(d); existing.Same(r) {
			return existing, ErrRuleExists
		}
	}

	r.ID = s.newID()
	if err := s.db.AddRow(ctx, docstore.TableRules, r.Document()); err != nil {
		return rule.Rule{}, fmt.Errorf("add rule: %w", err)
	}
	return r, nil
}

// RemoveRule deletes the rules mapping r.Source to r.Dest, restricted to
// r.ProjectID when set, and returns how many were removed.
func (s *Service) RemoveRule(ctx context.Context, r rule.Rule) (int64, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return 0, err
	}

	s.rulesMu.Lock()
	defer s.rulesMu.Unlock()

	n, err := s.db.Remove(ctx, docstore.TableRules, r.Key())
	if err != nil {
		return 0, fmt.Errorf("remove rule: %w", err)
	}
	if n == 0 {
		return 0, ErrRuleNotFound
	}
	return n, nil
}

func (s *Service) GetIssues(ctx context.Context) ([]docstore.Document, error) {
	docs, err := s.db.GetAll(ctx, docstore.TableIssues)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	for _, d := range docs {
		if err := checkIssue(d); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (s *Service) GetIssue(ctx context.Context, issueID string) (docstore.Document, error) {
	docs, err := s.db.Find(ctx, docstore.TableIssues, docstore.Document{"issue_id": issueID})
	if err != nil {
		return nil, fmt.Errorf("find issue: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrIssueNotFound, issueID)
	}
	if err := checkIssue(docs[0]); err != nil {
		return nil, err
	}
	return docs[0], nil
}

// checkIssue rejects documents that issue.FromDocument cannot parse. The
// document itself is returned as stored, extra fields included.
func checkIssue(d docstore.Document) error {
	if _, err := issue.FromDocument(d); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedIssue, err)
	}
	return nil
}

// SeedIssues stores issue.MockIssues when the issues table is empty and
// reports how many issues were added.
func (s *Service) SeedIssues(ctx context.Context) (int, error) {
	existing, err := s.db.GetAll(ctx, docstore.TableIssues)
	if err != nil {
		return 0, fmt.Errorf("list issues: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	mock := issue.MockIssues()
	docs := make([]docstore.Document, 0, len(mock))
	for _, i := range mock {
		docs = append(docs, i.Document())
	}
	if err := s.db.AddAll(ctx, docstore.TableIssues, docs); err != nil {
		return 0, fmt.Errorf("seed issues: %w", err)
	}
	return len(docs), nil
}

// Snapshot returns every table's documents, keyed by table name.
func (s *Service) Snapshot(ctx context.Context) (map[string][]docstore.Document, error) {
	out := make(map[string][]docstore.Document, len(docstore.Tables))
	for _, t := range docstore.Tables {
		docs, err := s.db.GetAll(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", t, err)
		}
		out[t] = docs
	}
	return out, nil
}
