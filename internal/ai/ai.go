// Package ai drafts campaign copy and donor reports with a language model.
package ai

import (
	"context"
	"errors"
	"strings"

	"claritychain/internal/core"
)

// ErrDisabled is returned when no model is configured.
var ErrDisabled = errors.New("ai content generation disabled")

var ErrUnknownKind = errors.New("unknown content kind")

type Kind string

const (
	KindStory   Kind = "story"
	KindSummary Kind = "summary"
	KindSEO     Kind = "seo"
	KindReport  Kind = "report"
	KindSocial  Kind = "social"
)

func Kinds() []Kind {
	return []Kind{KindStory, KindSummary, KindSEO, KindReport, KindSocial}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// ReportInput is the platform summary a donor report is written from.
type ReportInput struct {
	Totals     core.Totals
	TopDonors  []core.RankedDonor
	Categories []core.CategoryStat
}

// Generator produces marketing and reporting text.
type Generator interface {
	CampaignStory(ctx context.Context, p core.Project) (string, error)
	CampaignSummary(ctx context.Context, p core.Project) (string, error)
	SEOSuggestions(ctx context.Context, p core.Project) (string, error)
	SocialPost(ctx context.Context, p core.Project) (string, error)
	DonorReport(ctx context.Context, in ReportInput) (string, error)
}

// Disabled is the Generator used when no API key is configured.
type Disabled struct{}

var _ Generator = Disabled{}

func (Disabled) CampaignStory(context.Context, core.Project) (string, error)   { return "", ErrDisabled }
func (Disabled) CampaignSummary(context.Context, core.Project) (string, error) { return "", ErrDisabled }
func (Disabled) SEOSuggestions(context.Context, core.Project) (string, error)  { return "", ErrDisabled }
func (Disabled) SocialPost(context.Context, core.Project) (string, error)      { return "", ErrDisabled }
func (Disabled) DonorReport(context.Context, ReportInput) (string, error)      { return "", ErrDisabled }
