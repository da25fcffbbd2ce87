// Package campaign drives the multi-step campaign wizard: a forward-moving
// step machine that accumulates a content specification, triggers content
// generation, and hands the result to injection.
package campaign

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/blogforge/distributor/internal/models"
)

// Wizard steps, in order. A session can jump back to any step it has
// already reached, never forward past its high-water mark.
type Step int

const (
	StepSites Step = iota
	StepIdentity
	StepSEO
	StepTone
	StepStructure
	StepPreview
	StepPublish
	StepResults
)

var stepNames = map[Step]string{
	StepSites:     "sites",
	StepIdentity:  "identity",
	StepSEO:       "seo",
	StepTone:      "tone",
	StepStructure: "structure",
	StepPreview:   "preview",
	StepPublish:   "publish",
	StepResults:   "results",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is a real wizard step.
func (s Step) Valid() bool { return s >= StepSites && s <= StepResults }

// Step validation errors.
var (
	ErrStepIncomplete = errors.New("step requirements not met")
	ErrUnknownStep    = errors.New("unknown wizard step")
	ErrStepNotReached = errors.New("step not reached yet")
	ErrNoContent      = errors.New("no generated content")
)

// Distribution status choices offered on the publish step.
const (
	DistributionPublish  = "Publish"
	DistributionDraft    = "Draft"
	DistributionSchedule = "Schedule"
)

// validateStep checks that the spec satisfies the given step's
// requirements, so Advance can refuse to move past an incomplete step.
func validateStep(step Step, spec *models.CampaignSpec) error {
	switch step {
	case StepSites:
		if len(spec.TargetSiteIDs) == 0 {
			return fmt.Errorf("%w: select at least one target site", ErrStepIncomplete)
		}
	case StepIdentity:
		id := spec.Identity
		if id.CampaignName == "" || id.PrimaryKeyword == "" || id.TargetAudience == "" {
			return fmt.Errorf("%w: campaign name, primary keyword and audience are required", ErrStepIncomplete)
		}
		if !validIntent(id.Intent) {
			return fmt.Errorf("%w: unknown search intent %q", ErrStepIncomplete, id.Intent)
		}
		if id.ContentType == "" {
			return fmt.Errorf("%w: content type is required", ErrStepIncomplete)
		}
	case StepSEO:
		seo := spec.SEO
		if n := len(seo.SecondaryKeywords); n < 2 || n > 5 {
			return fmt.Errorf("%w: need 2 to 5 secondary keywords, got %d", ErrStepIncomplete, n)
		}
		if n := len(seo.FeaturedImageURLs); n < 1 || n > 5 {
			return fmt.Errorf("%w: need 1 to 5 featured images, got %d", ErrStepIncomplete, n)
		}
		if !hasValidImageURL(seo.FeaturedImageURLs) {
			return fmt.Errorf("%w: need at least one http(s) featured image URL", ErrStepIncomplete)
		}
	case StepTone:
		p := spec.Personalization
		if p.Persona == "" {
			return fmt.Errorf("%w: persona is required", ErrStepIncomplete)
		}
		if p.Persona == models.PersonaCustom && p.CustomPersona == "" {
			return fmt.Errorf("%w: custom persona text is required", ErrStepIncomplete)
		}
		if p.Tone == "" || p.Style == "" || p.PointOfView == "" || p.EmojiUsage == "" {
			return fmt.Errorf("%w: tone, style, point of view and emoji usage are required", ErrStepIncomplete)
		}
		if p.HumanizationLevel < 0 || p.HumanizationLevel > 100 {
			return fmt.Errorf("%w: humanization level must be 0-100", ErrStepIncomplete)
		}
	case StepStructure:
		wc := spec.Structure.WordCountRange
		if wc[0] <= 0 || wc[1] < wc[0] {
			return fmt.Errorf("%w: word count range must be positive and ordered", ErrStepIncomplete)
		}
	case StepPreview:
		// Content presence is checked by the manager, which owns it.
	case StepPublish:
		return validateDistribution(spec.Distribution)
	case StepResults:
		// Terminal step.
	default:
		return ErrUnknownStep
	}
	return nil
}

func validateDistribution(d models.Distribution) error {
	switch d.PostStatus {
	case DistributionPublish, DistributionDraft:
		return nil
	case DistributionSchedule:
		if d.ScheduledAt == nil {
			return fmt.Errorf("%w: schedule requires a timestamp", ErrStepIncomplete)
		}
		if !d.ScheduledAt.After(time.Now()) {
			return models.ErrScheduleInPast
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown post status %q", ErrStepIncomplete, d.PostStatus)
	}
}

// resolveStatus maps the wizard's distribution choice onto a post status.
func resolveStatus(d models.Distribution) string {
	switch d.PostStatus {
	case DistributionPublish:
		return models.StatusPublished
	case DistributionSchedule:
		return models.StatusScheduled
	default:
		return models.StatusDraft
	}
}

// hasValidImageURL reports whether at least one entry parses as an absolute
// http or https URL. Generation needs one usable image.
func hasValidImageURL(urls []string) bool {
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return true
		}
	}
	return false
}

func validIntent(intent string) bool {
	switch intent {
	case models.IntentInformational, models.IntentTransactional,
		models.IntentCommercial, models.IntentNavigational:
		return true
	}
	return false
}
