/*
handlers.go - HTTP API handlers for the loyalty engine

PURPOSE:
  Exposes the loyalty engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the domain Service.

ENDPOINTS:
  Kiosk (public):
    POST   /api/enroll                       Enroll (register + book)
    GET    /api/members/pin/{pin}            Member lookup by PIN
    GET    /api/members/pin/{pin}/history    Member ledger history
    GET    /api/members/phone/{phone}        Is this phone registered?
    GET    /api/activities                   Activity catalog
    GET    /api/activities/{id}              One activity

  Member operations:
    POST   /api/transfer                     Gift points to another member
    POST   /api/redeem                       Spend points on a reward
    POST   /api/donate                       Donate points to a cause
    POST   /api/purchase                     Buy points (net of fee)

  Admin:
    POST   /api/admin/members                Register without booking
    GET    /api/admin/members                List members
    GET    /api/admin/members/ranking        Top balances
    POST   /api/admin/members/{id}/adjust    Signed manual correction
    POST   /api/admin/members/{id}/penalty   Clamped sanction debit
    POST   /api/admin/members/{id}/restitution  Credit points back
    POST   /api/admin/members/{id}/reconcile Audit one member
    POST   /api/admin/members/{id}/birthday-bonus  Grant if due
    DELETE /api/admin/members/{id}           Purge member and history
    POST   /api/admin/bookings/{id}/withdraw Cancel an active booking
    POST   /api/admin/bookings/{id}/no-show  Mark a booking missed
    POST   /api/admin/activities             Create activity
    PUT    /api/admin/activities/{id}        Update activity
    POST   /api/admin/activities/{id}/conclude  Conclude (points kept)
    DELETE /api/admin/activities/{id}        Radical delete (points reversed)
    GET    /api/admin/stats                  Dashboard summary
    GET    /api/admin/ledger                 Global ledger, paginated
    POST   /api/admin/reconcile              Audit every member
    POST   /api/admin/bonus-sweep            Grant due birthday bonuses
    GET    /api/admin/notifications          Admin feed
    POST   /api/admin/notifications/read     Mark feed read
    GET    /api/admin/export/members.txt     Fixed-width member report
    GET    /api/admin/activities/{id}/participants.csv  Roster export

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate phone, duplicate booking row)
  - 422: Business rule violations (insufficient balance, full activity)
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. Deploy behind a gateway that provides it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *loyalty.Service
	Log     *slog.Logger
}

// NewHandler creates a new handler around the domain service.
func NewHandler(svc *loyalty.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Service: svc, Log: log}
}

// =============================================================================
// KIOSK HANDLERS
// =============================================================================

// Enroll books a seat, registering the member first when no PIN is given.
// POST /api/enroll
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ActivityID == "" {
		writeError(w, http.StatusBadRequest, "activity_id is required", nil)
		return
	}

	in := loyalty.EnrollmentInput{PIN: req.PIN}
	if req.PIN == "" {
		birthDate, err := parseOptionalDate(req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid birth_date", err)
			return
		}
		in.Registration = &loyalty.RegistrationInput{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			SecondLastName: req.SecondLastName,
			Phone:          req.Phone,
			BirthDate:      birthDate,
		}
	}

	res, err := h.Service.Enroll(r.Context(), ledger.ActivityID(req.ActivityID), in)
	if err != nil {
		h.writeDomainError(w, "Enrollment failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, EnrollmentResponse{
		Member:               toMemberDTO(res.Member),
		Booking:              toBookingDTO(res.Booking),
		NewMember:            res.NewMember,
		Reactivated:          res.Reactivated,
		PointsEarned:         res.PointsEarned,
		BirthdayBonusGranted: res.BirthdayBonusGranted,
	})
}

// LookupMember returns a member's profile by PIN.
// GET /api/members/pin/{pin}
func (h *Handler) LookupMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.MemberByPIN(r.Context(), chi.URLParam(r, "pin"))
	if err != nil {
		h.writeDomainError(w, "Member lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

// MemberHistory returns a member's ledger, newest first.
// GET /api/members/pin/{pin}/history?limit=N
func (h *Handler) MemberHistory(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.MemberByPIN(r.Context(), chi.URLParam(r, "pin"))
	if err != nil {
		h.writeDomainError(w, "Member lookup failed", err)
		return
	}

	// Kiosk screens show the most recent page; limit=0 requests everything.
	entries, err := h.Service.History(r.Context(), m.ID, queryInt(r, "limit", 15))
	if err != nil {
		h.writeDomainError(w, "Failed to load history", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// CheckPhone reports whether a phone number is registered.
// GET /api/members/phone/{phone}
func (h *Handler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	registered, err := h.Service.PhoneRegistered(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		h.writeDomainError(w, "Phone check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}

// ListActivities returns the catalog with live seat counts.
// GET /api/activities
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Service.Activities(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list activities", err)
		return
	}

	dtos := make([]ActivityDTO, len(activities))
	for i := range activities {
		participants, err := h.Service.Participants(r.Context(), activities[i].ID, loyalty.BookingActive)
		if err != nil {
			h.writeDomainError(w, "Failed to count seats", err)
			return
		}
		dtos[i] = toActivityDTO(&activities[i], len(participants))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetActivity returns one catalog entry.
// GET /api/activities/{id}
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id := ledger.ActivityID(chi.URLParam(r, "id"))
	a, err := h.Service.Activity(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Activity lookup failed", err)
		return
	}
	participants, err := h.Service.Participants(r.Context(), id, loyalty.BookingActive)
	if err != nil {
		h.writeDomainError(w, "Failed to count seats", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(a, len(participants)))
}

// =============================================================================
// MEMBER OPERATION HANDLERS
// =============================================================================

// Transfer gifts points between members, identified by PIN.
// POST /api/transfer
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sender, err := h.Service.MemberByPIN(r.Context(), req.SenderPIN)
	if err != nil {
		h.writeDomainError(w, "Sender lookup failed", err)
		return
	}
	recipient, err := h.Service.MemberByPIN(r.Context(), req.RecipientPIN)
	if err != nil {
		h.writeDomainError(w, "Recipient lookup failed", err)
		return
	}

	res, err := h.Service.Transfer(r.Context(), sender.ID, recipient.ID, req.Amount)
	if err != nil {
		h.writeDomainError(w, "Transfer failed", err)
		return
	}
	writeJSON(w, http.StatusOK, TransferResponse{
		Sender:    toMemberDTO(res.Sender),
		Recipient: toMemberDTO(res.Recipient),
		Amount:    res.Amount,
	})
}

// Redeem spends points on a reward.
// POST /api/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m, err := h.Service.MemberByPIN(r.Context(), req.PIN)
	if err != nil {
		h.writeDomainError(w, "Member lookup failed", err)
		return
	}
	entry, err := h.Service.Redeem(r.Context(), m.ID, req.Cost, req.Reward)
	if err != nil {
		h.writeDomainError(w, "Redemption failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// Donate spends points on a cause.
// POST /api/donate
func (h *Handler) Donate(w http.ResponseWriter, r *http.Request) {
	var req DonateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m, err := h.Service.MemberByPIN(r.Context(), req.PIN)
	if err != nil {
		h.writeDomainError(w, "Member lookup failed", err)
		return
	}
	entry, err := h.Service.Donate(r.Context(), m.ID, req.Amount, req.Cause)
	if err != nil {
		h.writeDomainError(w, "Donation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// Purchase credits bought points, net of the handling fee.
// POST /api/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m, err := h.Service.MemberByPIN(r.Context(), req.PIN)
	if err != nil {
		h.writeDomainError(w, "Member lookup failed", err)
		return
	}
	res, err := h.Service.PurchasePoints(r.Context(), m.ID, req.Gross)
	if err != nil {
		h.writeDomainError(w, "Purchase failed", err)
		return
	}
	writeJSON(w, http.StatusOK, PurchaseResponse{
		Gross: res.Gross,
		Fee:   res.Fee,
		Net:   res.Net,
		Entry: toEntryDTO(*res.Entry),
	})
}

// =============================================================================
// ADMIN MEMBER HANDLERS
// =============================================================================

// RegisterMember creates a member without booking anything.
// POST /api/admin/members
func (h *Handler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req RegisterMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	birthDate, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid birth_date", err)
		return
	}

	m, err := h.Service.RegisterMember(r.Context(), loyalty.RegistrationInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Phone:          req.Phone,
		BirthDate:      birthDate,
	})
	if err != nil {
		h.writeDomainError(w, "Registration failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// ListMembers returns every member, ordered by name.
// GET /api/admin/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.Members(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list members", err)
		return
	}
	dtos := make([]MemberDTO, len(members))
	for i := range members {
		dtos[i] = toMemberDTO(&members[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Ranking returns the top members by balance.
// GET /api/admin/members/ranking?limit=N
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.Ranking(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		h.writeDomainError(w, "Failed to load ranking", err)
		return
	}
	dtos := make([]MemberDTO, len(members))
	for i := range members {
		dtos[i] = toMemberDTO(&members[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Adjust applies a signed manual correction.
// POST /api/admin/members/{id}/adjust
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	h.adminEntryOp(w, r, "Adjustment failed", h.Service.ManualAdjust)
}

// Penalty applies a clamped sanction debit.
// POST /api/admin/members/{id}/penalty
func (h *Handler) Penalty(w http.ResponseWriter, r *http.Request) {
	h.adminEntryOp(w, r, "Penalty failed", h.Service.Penalize)
}

// Restitution credits points back to a member.
// POST /api/admin/members/{id}/restitution
func (h *Handler) Restitution(w http.ResponseWriter, r *http.Request) {
	h.adminEntryOp(w, r, "Restitution failed", h.Service.Restitute)
}

func (h *Handler) adminEntryOp(w http.ResponseWriter, r *http.Request, message string,
	op func(context.Context, ledger.MemberID, int64, string) (*ledger.Entry, error)) {
	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := op(r.Context(), ledger.MemberID(chi.URLParam(r, "id")), req.Amount, req.Reason)
	if err != nil {
		h.writeDomainError(w, message, err)
		return
	}
	if entry == nil {
		// Clamp left nothing to debit; the ledger stays untouched.
		writeJSON(w, http.StatusOK, map[string]any{"applied": 0})
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// Reconcile audits one member's cached balance against the ledger.
// POST /api/admin/members/{id}/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Reconcile(r.Context(), ledger.MemberID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(*report))
}

// BirthdayBonus grants the member's birthday bonus if due today.
// POST /api/admin/members/{id}/birthday-bonus
func (h *Handler) BirthdayBonus(w http.ResponseWriter, r *http.Request) {
	granted, err := h.Service.CheckAndGrantBirthdayBonus(r.Context(), ledger.MemberID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Bonus check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"granted": granted})
}

// PurgeMember erases a member and their entire history.
// DELETE /api/admin/members/{id}
func (h *Handler) PurgeMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.PurgeMember(r.Context(), ledger.MemberID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, "Purge failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN BOOKING HANDLERS
// =============================================================================

// Withdraw cancels an active booking.
// POST /api/admin/bookings/{id}/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.Withdraw(r.Context(), ledger.BookingID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Withdrawal failed", err)
		return
	}
	h.writeReversal(w, entry)
}

// NoShow marks an active booking as missed.
// POST /api/admin/bookings/{id}/no-show
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.MarkNoShow(r.Context(), ledger.BookingID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "No-show failed", err)
		return
	}
	h.writeReversal(w, entry)
}

func (h *Handler) writeReversal(w http.ResponseWriter, entry *ledger.Entry) {
	if entry == nil {
		// Balance was already at zero; the transition happened, nothing moved.
		writeJSON(w, http.StatusOK, map[string]any{"reversed": 0})
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// =============================================================================
// ADMIN ACTIVITY HANDLERS
// =============================================================================

// CreateActivity adds a catalog entry.
// POST /api/admin/activities
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeActivity(w, r)
	if !ok {
		return
	}
	a, err := h.Service.CreateActivity(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to create activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(a, 0))
}

// UpdateActivity edits a catalog entry.
// PUT /api/admin/activities/{id}
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeActivity(w, r)
	if !ok {
		return
	}
	id := ledger.ActivityID(chi.URLParam(r, "id"))
	a, err := h.Service.UpdateActivity(r.Context(), id, in)
	if err != nil {
		h.writeDomainError(w, "Failed to update activity", err)
		return
	}
	participants, err := h.Service.Participants(r.Context(), id, loyalty.BookingActive)
	if err != nil {
		h.writeDomainError(w, "Failed to count seats", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(a, len(participants)))
}

func (h *Handler) decodeActivity(w http.ResponseWriter, r *http.Request) (loyalty.ActivityInput, bool) {
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return loyalty.ActivityInput{}, false
	}
	activityDate := time.Time{}
	if req.ActivityDate != "" {
		t, err := time.Parse(dateLayout, req.ActivityDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid activity_date", err)
			return loyalty.ActivityInput{}, false
		}
		activityDate = t
	}
	return loyalty.ActivityInput{
		Title:        req.Title,
		Description:  req.Description,
		ActivityDate: activityDate,
		PointsReward: req.PointsReward,
		Capacity:     req.Capacity,
	}, true
}

// ConcludeActivity tears down an activity; participants keep their points.
// POST /api/admin/activities/{id}/conclude
func (h *Handler) ConcludeActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ConcludeActivity(r.Context(), ledger.ActivityID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, "Conclude failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RadicalDeleteActivity removes an activity and reverses its credits.
// DELETE /api/admin/activities/{id}
func (h *Handler) RadicalDeleteActivity(w http.ResponseWriter, r *http.Request) {
	reversed, err := h.Service.RadicalDeleteActivity(r.Context(), ledger.ActivityID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Radical delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"points_reversed": reversed})
}

// =============================================================================
// ADMIN LEDGER, RECONCILIATION AND FEED HANDLERS
// =============================================================================

// GlobalLedger returns the program-wide ledger, paginated.
// GET /api/admin/ledger?limit=N&offset=M
func (h *Handler) GlobalLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.GlobalHistory(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.writeDomainError(w, "Failed to load ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// ReconcileAll audits every member and returns only repaired reports.
// POST /api/admin/reconcile
func (h *Handler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Service.ReconcileAll(r.Context())
	if err != nil {
		h.writeDomainError(w, "Reconciliation failed", err)
		return
	}
	dtos := make([]ReconciliationDTO, len(reports))
	for i, report := range reports {
		dtos[i] = toReconciliationDTO(report)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"corrected": len(dtos),
		"reports":   dtos,
	})
}

// ProgramStats returns the dashboard summary.
// GET /api/admin/stats
func (h *Handler) ProgramStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.ProgramStats(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		Members:           stats.Members,
		PointsOutstanding: stats.PointsOutstanding,
		Activities:        stats.Activities,
		ActiveBookings:    stats.ActiveBookings,
	})
}

// BonusSweep grants pending birthday bonuses for today.
// POST /api/admin/bonus-sweep
func (h *Handler) BonusSweep(w http.ResponseWriter, r *http.Request) {
	granted, err := h.Service.GrantDueBirthdayBonuses(r.Context())
	if err != nil {
		h.writeDomainError(w, "Bonus sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"granted": granted})
}

// Notifications returns the admin feed.
// GET /api/admin/notifications?limit=N
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Service.Notifications(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.writeDomainError(w, "Failed to load notifications", err)
		return
	}
	dtos := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		dtos[i] = NotificationDTO{
			ID:        n.ID,
			Category:  n.Category,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkNotificationsRead marks the entire feed as read.
// POST /api/admin/notifications/read
func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkNotificationsRead(r.Context()); err != nil {
		h.writeDomainError(w, "Failed to mark notifications read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health is a liveness probe.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case loyalty.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case loyalty.IsRuleViolation(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		h.Log.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
