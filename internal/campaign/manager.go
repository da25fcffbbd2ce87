package campaign

import (
	"context"
	"fmt"

	"github.com/blogforge/distributor/internal/assets"
	"github.com/blogforge/distributor/internal/generator"
	"github.com/blogforge/distributor/internal/injection"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

// Manager owns wizard sessions and their side effects: content generation
// when the brief is complete, injection when the operator confirms publish.
type Manager struct {
	store     *Store
	generator generator.Generator
	injector  injection.Injector
	logger    logger.Logger
}

// NewManager creates a campaign manager.
func NewManager(store *Store, gen generator.Generator, inj injection.Injector, log logger.Logger) *Manager {
	return &Manager{store: store, generator: gen, injector: inj, logger: log}
}

// Create starts a new wizard session.
func (m *Manager) Create() *Session {
	session := m.store.Create()
	m.logger.Info("Created campaign session", logger.String("session_id", session.ID))
	return session
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	return m.store.Get(id)
}

// Delete discards a session.
func (m *Manager) Delete(id string) {
	m.store.Delete(id)
}

// UpdateSpec applies a partial spec update to the session without
// validating. Validation happens on Advance, so operators can save
// incomplete steps and come back.
func (m *Manager) UpdateSpec(id string, apply func(*models.CampaignSpec)) (*Session, error) {
	err := m.store.Mutate(id, func(s *Session) error {
		apply(&s.Spec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.store.Get(id)
}

// AttachAssets merges replicated image URLs into the session's mapping.
func (m *Manager) AttachAssets(id string, mapping assets.Mapping) error {
	return m.store.Mutate(id, func(s *Session) error {
		s.Assets.Merge(mapping)
		return nil
	})
}

// Advance validates the current step and moves to the next one. Leaving the
// structure step generates content; leaving the publish step runs the
// injection. On any failure the session stays where it is.
func (m *Manager) Advance(ctx context.Context, id string) (*Session, error) {
	session, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	current := session.Current
	if current >= StepResults {
		return session, nil
	}
	if err := validateStep(current, &session.Spec); err != nil {
		m.store.Mutate(id, func(s *Session) error {
			s.ValidationErrors = []string{err.Error()}
			return nil
		})
		return nil, err
	}
	if err := m.store.Mutate(id, func(s *Session) error {
		s.ValidationErrors = nil
		return nil
	}); err != nil {
		return nil, err
	}

	switch current {
	case StepStructure:
		content, err := m.generator.Generate(ctx, &session.Spec)
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}
		if err := m.store.Mutate(id, func(s *Session) error {
			s.Content = content
			return nil
		}); err != nil {
			return nil, err
		}
	case StepPreview:
		if session.Content == nil {
			return nil, ErrNoContent
		}
	case StepPublish:
		if session.Content == nil {
			return nil, ErrNoContent
		}
		results, err := m.injector.Inject(ctx, injection.Request{
			Spec:        &session.Spec,
			Content:     session.Content,
			Status:      resolveStatus(session.Spec.Distribution),
			ScheduledAt: session.Spec.Distribution.ScheduledAt,
			Assets:      session.Assets,
		})
		if err != nil {
			return nil, fmt.Errorf("inject campaign: %w", err)
		}
		if err := m.store.Mutate(id, func(s *Session) error {
			s.Results = results
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := m.store.Mutate(id, func(s *Session) error {
		s.Current = current + 1
		if s.Current > s.MaxReached {
			s.MaxReached = s.Current
		}
		return nil
	}); err != nil {
		return nil, err
	}

	m.logger.Info("Advanced campaign session",
		logger.String("session_id", id),
		logger.String("from", current.String()),
		logger.String("to", (current + 1).String()),
	)
	return m.store.Get(id)
}

// JumpTo moves to a previously reached step. Jumping forward past the
// high-water mark is refused, and any forward jump requires the currently
// active step to validate so invalid edits cannot be skipped over.
func (m *Manager) JumpTo(id string, step Step) (*Session, error) {
	err := m.store.Mutate(id, func(s *Session) error {
		if !step.Valid() {
			return ErrUnknownStep
		}
		if step > s.MaxReached {
			return ErrStepNotReached
		}
		if step > s.Current {
			if err := validateStep(s.Current, &s.Spec); err != nil {
				return fmt.Errorf("complete current step first: %w", err)
			}
		}
		s.Current = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.store.Get(id)
}

// Regenerate replaces the generated content with a fresh run over the same
// spec. Only available once the preview step has been reached.
func (m *Manager) Regenerate(ctx context.Context, id string) (*Session, error) {
	session, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if session.MaxReached < StepPreview {
		return nil, ErrStepNotReached
	}

	content, err := m.generator.Generate(ctx, &session.Spec)
	if err != nil {
		return nil, fmt.Errorf("regenerate content: %w", err)
	}
	if err := m.store.Mutate(id, func(s *Session) error {
		s.Content = content
		return nil
	}); err != nil {
		return nil, err
	}
	return m.store.Get(id)
}

// ContentPatch is a partial edit of the generated content. Nil fields are
// left unchanged.
type ContentPatch struct {
	H1              *string `json:"h1,omitempty"`
	MetaTitle       *string `json:"meta_title,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
	BodyHTML        *string `json:"body_html,omitempty"`
}

// EditContent applies manual edits to the generated content on the preview
// step.
func (m *Manager) EditContent(id string, patch ContentPatch) (*Session, error) {
	err := m.store.Mutate(id, func(s *Session) error {
		if s.Content == nil {
			return ErrNoContent
		}
		if patch.H1 != nil {
			s.Content.H1 = *patch.H1
		}
		if patch.MetaTitle != nil {
			s.Content.MetaTitle = *patch.MetaTitle
		}
		if patch.MetaDescription != nil {
			s.Content.MetaDescription = *patch.MetaDescription
		}
		if patch.BodyHTML != nil {
			s.Content.BodyHTML = *patch.BodyHTML
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.store.Get(id)
}
