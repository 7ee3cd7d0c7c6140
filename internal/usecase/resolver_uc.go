// File: internal/usecase/resolver_uc.go
package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
)

// Compile-time check
var _ ResolverUseCase = (*resolverUC)(nil)

// ResolverUseCase recovers internal identifiers from provider metadata.
//
// The enrollment id must come from a direct metadata field; nothing can
// reconstruct it if missing, so the event is unreconcilable
// (domain.ErrUnresolvableReference). The learning track is lower criticality:
// three sources are tried in order and a miss only produces a warning.
type ResolverUseCase interface {
	Resolve(ctx context.Context, ev *model.PaymentEvent) (*model.ResolvedPaymentEvent, error)
}

type resolverUC struct {
	log *zerolog.Logger
}

func NewResolverUseCase(logger *zerolog.Logger) *resolverUC {
	compLog := logger.With().Str("component", "Resolver").Logger()
	return &resolverUC{log: &compLog}
}

// refPattern matches the checkout reference string "ENR-<enrollment_id>-<track>-<unix>".
// The enrollment id segment may itself contain dashes (UUIDs), so the track
// token and trailing timestamp anchor the match from the right.
var refPattern = regexp.MustCompile(`^ENR-(.+)-(one_on_one|group_mentorship|self_paced)-(\d+)$`)

// Display labels the checkout UI uses for each track; custom-field values are
// matched by substring against these.
var trackLabels = map[model.LearningTrack][]string{
	model.TrackOneOnOne:        {"one_on_one", "one-on-one", "one on one", "1-on-1"},
	model.TrackGroupMentorship: {"group_mentorship", "group mentorship", "group"},
	model.TrackSelfPaced:       {"self_paced", "self-paced", "self paced"},
}

func (r *resolverUC) Resolve(ctx context.Context, ev *model.PaymentEvent) (*model.ResolvedPaymentEvent, error) {
	if ev == nil {
		return nil, domain.ErrInvalidArgument
	}

	enrollmentID := strings.TrimSpace(ev.RawMetadata["enrollment_id"])
	if enrollmentID == "" {
		r.log.Warn().
			Str("provider", string(ev.Provider)).
			Str("event_id", ev.ProviderEventID).
			Str("reference", ev.ProviderReference).
			Msg("event carries no enrollment_id metadata; dropping")
		return nil, domain.ErrUnresolvableReference
	}

	resolved := &model.ResolvedPaymentEvent{
		PaymentEvent: *ev,
		EnrollmentID: enrollmentID,
	}

	if track, ok := r.resolveTrack(ev); ok {
		resolved.LearningTrack = &track
	} else {
		r.log.Warn().
			Str("provider", string(ev.Provider)).
			Str("event_id", ev.ProviderEventID).
			Str("enrollment_id", enrollmentID).
			Msg("learning track not resolvable; payment will be applied without it")
	}
	return resolved, nil
}

// resolveTrack tries, in order: direct metadata field, the nested custom-field
// list, and the reference-string pattern. Only the three known tokens are ever
// accepted.
func (r *resolverUC) resolveTrack(ev *model.PaymentEvent) (model.LearningTrack, bool) {
	if raw, ok := ev.RawMetadata["learning_track"]; ok {
		if track, ok := model.ParseLearningTrack(strings.TrimSpace(raw)); ok {
			return track, true
		}
	}

	for _, f := range ev.CustomFields {
		if !strings.EqualFold(strings.TrimSpace(f.VariableName), "learning_track") {
			continue
		}
		if track, ok := matchTrackLabel(f.Value); ok {
			return track, true
		}
		if track, ok := matchTrackLabel(f.DisplayName); ok {
			return track, true
		}
	}

	if m := refPattern.FindStringSubmatch(ev.ProviderReference); m != nil {
		if track, ok := model.ParseLearningTrack(m[2]); ok {
			return track, true
		}
	}
	return "", false
}

func matchTrackLabel(s string) (model.LearningTrack, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return "", false
	}
	for _, track := range model.KnownTracks {
		for _, label := range trackLabels[track] {
			if strings.Contains(needle, label) {
				return track, true
			}
		}
	}
	return "", false
}
