package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"pawhome/internal/model"
	"pawhome/internal/notify"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scoring weights for the attribute tier. The microchip tier bypasses them
// entirely with a fixed high-confidence score.
const (
	microchipScore = 0.95
	microchipLimit = 3

	breedWeight  = 0.15
	sizeWeight   = 0.12
	genderWeight = 0.12
	colorWeight  = 0.15

	pregnancyWeight        = 0.05
	pregnancyPartialWeight = 0.025

	governorateWeight     = 0.10
	delegationWeight      = 0.10
	delegationPenalty     = 0.05
	governoratePenalty    = 0.30

	minMatchScore = 0.20
	maxMatches    = 10

	dateWindow = 14 * 24 * time.Hour
)

// ScoredReport is a match candidate annotated with its similarity score.
type ScoredReport struct {
	model.Report
	MatchScore float64 `json:"match_score"`
}

// MatchService runs the heuristic scorer and applies the admin-only pairwise
// match / unmatch / reunite transitions.
type MatchService interface {
	GetPotentialMatches(ctx context.Context, id string) ([]ScoredReport, error)
	Match(ctx context.Context, caller Caller, firstID, secondID string) (*model.Report, *model.Report, error)
	Unmatch(ctx context.Context, caller Caller, id string) (*model.Report, error)
	Reunite(ctx context.Context, caller Caller, id string) (*model.Report, error)
}

type matchService struct {
	reports   repository.ReportRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	hub       Broadcaster
	notifier  *notify.Notifier
	log       *logger.Logger
}

func NewMatchService(
	reports repository.ReportRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	hub Broadcaster,
	notifier *notify.Notifier,
	log *logger.Logger,
) MatchService {
	return &matchService{
		reports:   reports,
		audit:     audit,
		txManager: txManager,
		hub:       hub,
		notifier:  notifier,
		log:       log,
	}
}

// --- Scorer ---

func (s *matchService) GetPotentialMatches(ctx context.Context, id string) ([]ScoredReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load report", err)
	}
	if report.Species == "" || report.Date.IsZero() {
		return nil, apperr.Validationf("report is missing species or date")
	}
	if report.Type != model.ReportTypeLost && report.Type != model.ReportTypeFound {
		return nil, apperr.Validationf("report has an invalid type %q", report.Type)
	}

	candidateType := model.OppositeType(report.Type)
	matches := make([]ScoredReport, 0, maxMatches)
	seen := make(map[uuid.UUID]bool)

	// Microchip tier: an exact chip match is near-certain identity and skips
	// attribute scoring altogether.
	if report.MicrochipNumber != "" {
		chipped, err := s.reports.FindByMicrochip(ctx, report.MicrochipNumber, candidateType, microchipLimit)
		if err != nil {
			return nil, apperr.FromDB("microchip candidates", err)
		}
		for _, c := range chipped {
			matches = append(matches, ScoredReport{Report: c, MatchScore: microchipScore})
			seen[c.ID] = true
		}
	}

	// Attribute tier: one broad query, scoring in memory.
	candidates, err := s.attributeCandidates(ctx, report, candidateType)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		score := scoreCandidate(report, &c)
		if score < minMatchScore {
			continue
		}
		matches = append(matches, ScoredReport{Report: c, MatchScore: score})
		seen[c.ID] = true
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches, nil
}

// attributeCandidates queries the opposite-type population, narrowing by the
// report's optional attributes first. When the narrowed query comes back
// empty, it widens by dropping the optional filters entirely so that a looser
// match is never hidden by over-narrowing.
func (s *matchService) attributeCandidates(ctx context.Context, report *model.Report, candidateType string) ([]model.Report, error) {
	filter := repository.CandidateFilter{
		Type:     candidateType,
		Species:  report.Species,
		DateFrom: report.Date.Add(-dateWindow),
		DateTo:   report.Date.Add(dateWindow),
		Breed:    report.Breed,
		Size:     report.Size,
		Gender:   report.Gender,
	}

	candidates, err := s.reports.FindCandidates(ctx, filter)
	if err != nil {
		return nil, apperr.FromDB("attribute candidates", err)
	}

	narrowed := filter.Breed != "" || filter.Size != "" || filter.Gender != ""
	if len(candidates) == 0 && narrowed {
		filter.Breed, filter.Size, filter.Gender = "", "", ""
		candidates, err = s.reports.FindCandidates(ctx, filter)
		if err != nil {
			return nil, apperr.FromDB("widened candidates", err)
		}
	}
	return candidates, nil
}

// scoreCandidate computes the additive similarity score between a report and
// an opposite-type candidate. A factor contributes nothing when either side
// lacks the field; the result is clamped to [0, 1].
func scoreCandidate(report, candidate *model.Report) float64 {
	score := 0.0

	if bothSet(report.Breed, candidate.Breed) && strings.EqualFold(report.Breed, candidate.Breed) {
		score += breedWeight
	}
	if bothSet(report.Size, candidate.Size) && strings.EqualFold(report.Size, candidate.Size) {
		score += sizeWeight
	}
	if bothSet(report.Gender, candidate.Gender) && strings.EqualFold(report.Gender, candidate.Gender) {
		score += genderWeight
	}

	bothFemale := strings.EqualFold(report.Gender, "Female") && strings.EqualFold(candidate.Gender, "Female")
	if report.IsPregnant != nil && *report.IsPregnant {
		switch {
		case bothFemale && candidate.IsPregnant != nil && *candidate.IsPregnant:
			score += pregnancyWeight
		case candidate.IsPregnant == nil:
			// Unknown pregnancy on the candidate earns partial credit.
			score += pregnancyPartialWeight
		}
	}

	if colorsIntersect(report.Color, candidate.Color) {
		score += colorWeight
	}

	score += locationScore(report.Location, candidate.Location)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func bothSet(a, b string) bool {
	return a != "" && b != ""
}

func colorsIntersect(reportColors, candidateColors []string) bool {
	set := make(map[string]bool, len(reportColors))
	for _, c := range reportColors {
		set[strings.ToLower(c)] = true
	}
	for _, c := range candidateColors {
		if set[strings.ToLower(c)] {
			return true
		}
	}
	return false
}

// locationScore rewards matching governorates and delegations. A governorate
// mismatch is a strong penalty that overrides any delegation bonus.
func locationScore(a, b model.Location) float64 {
	if a.Governorate == "" || b.Governorate == "" {
		return 0
	}
	if !strings.EqualFold(a.Governorate, b.Governorate) {
		return -governoratePenalty
	}

	score := governorateWeight
	if bothSet(a.Delegation, b.Delegation) {
		if strings.EqualFold(a.Delegation, b.Delegation) {
			score += delegationWeight
		} else {
			score -= delegationPenalty
		}
	}
	return score
}

// --- Coordinator ---

func (s *matchService) Match(ctx context.Context, caller Caller, firstID, secondID string) (*model.Report, *model.Report, error) {
	if !caller.IsAdmin() {
		return nil, nil, apperr.Forbiddenf("only admins may match reports")
	}
	if firstID == secondID {
		return nil, nil, apperr.Validationf("cannot match a report with itself")
	}

	var first, second *model.Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		first, err = s.reports.GetByID(txCtx, firstID)
		if err != nil {
			return apperr.FromDB("load first report", err)
		}
		second, err = s.reports.GetByID(txCtx, secondID)
		if err != nil {
			return apperr.FromDB("load second report", err)
		}

		if first.Type == second.Type {
			return apperr.Validationf("cannot match two %s reports together", first.Type)
		}
		if first.Status != model.ReportStatusPending {
			return apperr.InvalidStatef("report %s is %s, only pending reports can be matched", first.ID, first.Status)
		}
		if second.Status != model.ReportStatusPending {
			return apperr.InvalidStatef("report %s is %s, only pending reports can be matched", second.ID, second.Status)
		}

		firstID, secondID := first.ID, second.ID
		first.Status = model.ReportStatusMatched
		first.MatchedReportID = &secondID
		second.Status = model.ReportStatusMatched
		second.MatchedReportID = &firstID

		if err := s.reports.Update(txCtx, first); err != nil {
			return apperr.FromDB("save first report", err)
		}
		if err := s.reports.Update(txCtx, second); err != nil {
			return apperr.FromDB("save second report", err)
		}

		s.auditPair(txCtx, caller, model.ActionMatchReports, first, second)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.hub.Emit(EventReportMatched, map[string]interface{}{
		"first":  first,
		"second": second,
	})
	s.notifyMatched(first, second)
	s.notifyMatched(second, first)

	return first, second, nil
}

// notifyMatched emails the reporter of `report` with the contact details of
// the counterpart. Best-effort: a failed email never affects the match.
func (s *matchService) notifyMatched(report, counterpart *model.Report) {
	contactName := "Anonymous User"
	if counterpart.Owner != nil {
		contactName = counterpart.Owner.Username
	}
	s.notifier.SendAsync(notify.TmplReportMatched, report.Email, map[string]interface{}{
		"CounterpartType": counterpart.Type,
		"ContactName":     contactName,
		"ContactEmail":    orNotProvided(counterpart.Email),
		"ContactPhone":    orNotProvided(counterpart.PhoneNumber),
	})
}

func orNotProvided(v string) string {
	if v == "" {
		return "Not provided"
	}
	return v
}

func (s *matchService) Unmatch(ctx context.Context, caller Caller, id string) (*model.Report, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbiddenf("only admins may unmatch reports")
	}

	var report, counterpart *model.Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		report, err = s.reports.GetByID(txCtx, id)
		if err != nil {
			return apperr.FromDB("load report", err)
		}
		if report.Status != model.ReportStatusMatched || report.MatchedReportID == nil {
			return apperr.InvalidStatef("report is not matched")
		}

		counterpartID := report.MatchedReportID.String()
		report.Status = model.ReportStatusPending
		report.MatchedReportID = nil
		if err := s.reports.Update(txCtx, report); err != nil {
			return apperr.FromDB("save report", err)
		}

		counterpart, err = s.reports.GetByID(txCtx, counterpartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Dangling reference: unmatch the primary side anyway.
				s.log.Warn("unmatch: counterpart report missing", "report_id", id, "counterpart_id", counterpartID)
				counterpart = nil
				s.auditPair(txCtx, caller, model.ActionUnmatchReports, report, nil)
				return nil
			}
			return apperr.FromDB("load counterpart", err)
		}
		counterpart.Status = model.ReportStatusPending
		counterpart.MatchedReportID = nil
		if err := s.reports.Update(txCtx, counterpart); err != nil {
			return apperr.FromDB("save counterpart", err)
		}

		s.auditPair(txCtx, caller, model.ActionUnmatchReports, report, counterpart)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Emit(EventReportUnmatched, map[string]interface{}{
		"report":      report,
		"counterpart": counterpart,
	})
	s.notifier.SendAsync(notify.TmplReportUnmatched, report.Email, map[string]interface{}{
		"ReportType": report.Type,
	})
	if counterpart != nil {
		s.notifier.SendAsync(notify.TmplReportUnmatched, counterpart.Email, map[string]interface{}{
			"ReportType": counterpart.Type,
		})
	}

	return report, nil
}

func (s *matchService) Reunite(ctx context.Context, caller Caller, id string) (*model.Report, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbiddenf("only admins may mark reports reunited")
	}

	var report, counterpart *model.Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		report, err = s.reports.GetByID(txCtx, id)
		if err != nil {
			return apperr.FromDB("load report", err)
		}
		if report.Status != model.ReportStatusMatched {
			return apperr.InvalidStatef("only matched reports can be marked reunited")
		}

		report.Status = model.ReportStatusReunited
		if err := s.reports.Update(txCtx, report); err != nil {
			return apperr.FromDB("save report", err)
		}

		if report.MatchedReportID != nil {
			counterpart, err = s.reports.GetByID(txCtx, report.MatchedReportID.String())
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.log.Warn("reunite: counterpart report missing", "report_id", id, "counterpart_id", report.MatchedReportID)
					counterpart = nil
					err = nil
				} else {
					return apperr.FromDB("load counterpart", err)
				}
			} else {
				counterpart.Status = model.ReportStatusReunited
				if err := s.reports.Update(txCtx, counterpart); err != nil {
					return apperr.FromDB("save counterpart", err)
				}
			}
		}

		s.auditPair(txCtx, caller, model.ActionReuniteReports, report, counterpart)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Emit(EventReportReunited, map[string]interface{}{
		"report":      report,
		"counterpart": counterpart,
	})
	return report, nil
}

func (s *matchService) auditPair(ctx context.Context, caller Caller, action string, first, second *model.Report) {
	var userID *uuid.UUID
	if uid, err := uuid.Parse(caller.ID); err == nil {
		userID = &uid
	}
	detailMap := map[string]interface{}{"report_id": first.ID.String()}
	if second != nil {
		detailMap["counterpart_id"] = second.ID.String()
	}
	details, _ := json.Marshal(detailMap)
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   first.ID.String(),
		EntityName: first.Name,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Error("failed to write audit log", "action", action, "report_id", first.ID, "error", err)
	}
}
