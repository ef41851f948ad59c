package services

import (
	"context"
	"fmt"

	"claritychain/internal/ai"
	"claritychain/internal/core"
)

// ContentService feeds dashboard data into the content generator.
type ContentService struct {
	dash *DashboardService
	gen  ai.Generator
}

func NewContentService(dash *DashboardService, gen ai.Generator) *ContentService {
	if gen == nil {
		gen = ai.Disabled{}
	}
	return &ContentService{dash: dash, gen: gen}
}

// Generate produces kind content. Project-scoped kinds require projectID;
// the donor report ignores it.
func (s *ContentService) Generate(ctx context.Context, kind ai.Kind, projectID string) (string, error) {
	if kind == ai.KindReport {
		return s.report(ctx)
	}

	p, err := s.dash.Project(ctx, projectID)
	if err != nil {
		return "", err
	}
	switch kind {
	case ai.KindStory:
		return s.gen.CampaignStory(ctx, p)
	case ai.KindSummary:
		return s.gen.CampaignSummary(ctx, p)
	case ai.KindSEO:
		return s.gen.SEOSuggestions(ctx, p)
	case ai.KindSocial:
		return s.gen.SocialPost(ctx, p)
	default:
		return "", fmt.Errorf("%w: %s", ai.ErrUnknownKind, kind)
	}
}

func (s *ContentService) report(ctx context.Context) (string, error) {
	snap, err := s.dash.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	opts := s.dash.opts
	return s.gen.DonorReport(ctx, ai.ReportInput{
		Totals:     core.ComputeTotalsWith(snap.Projects, snap.Fund, opts.Normalization),
		TopDonors:  core.TopDonors(snap.Donations, snap.Lookup(), opts.HallOfFameLimit, core.AllDonations),
		Categories: core.CategoryStats(snap.Projects),
	})
}
