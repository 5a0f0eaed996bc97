/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  - Dates (birth dates, activity dates) travel as "2006-01-02"
  - Timestamps travel as RFC3339
  - Amounts are plain integers; the points unit is implicit

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

const dateLayout = "2006-01-02"

// =============================================================================
// REQUESTS
// =============================================================================

// EnrollRequest books a seat: pin for returning members, the name/phone
// block for first-timers.
type EnrollRequest struct {
	ActivityID string `json:"activity_id"`
	PIN        string `json:"pin,omitempty"`

	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	SecondLastName string `json:"second_last_name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	BirthDate      string `json:"birth_date,omitempty"`
}

type RegisterMemberRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name,omitempty"`
	Phone          string `json:"phone"`
	BirthDate      string `json:"birth_date,omitempty"`
}

type TransferRequest struct {
	SenderPIN    string `json:"sender_pin"`
	RecipientPIN string `json:"recipient_pin"`
	Amount       int64  `json:"amount"`
}

type RedeemRequest struct {
	PIN    string `json:"pin"`
	Cost   int64  `json:"cost"`
	Reward string `json:"reward"`
}

type DonateRequest struct {
	PIN    string `json:"pin"`
	Amount int64  `json:"amount"`
	Cause  string `json:"cause"`
}

type PurchaseRequest struct {
	PIN   string `json:"pin"`
	Gross int64  `json:"gross"`
}

type AdjustRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type ActivityRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ActivityDate string `json:"activity_date"`
	PointsReward int64  `json:"points_reward"`
	Capacity     int    `json:"capacity"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type MemberDTO struct {
	ID            string `json:"id"`
	PIN           string `json:"pin"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	BirthDate     string `json:"birth_date,omitempty"`
	Balance       int64  `json:"balance"`
	Level         string `json:"level"`
	LastBonusYear int    `json:"last_bonus_year,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toMemberDTO(m *loyalty.Member) MemberDTO {
	dto := MemberDTO{
		ID:            string(m.ID),
		PIN:           m.PIN,
		FullName:      m.FullName(),
		Phone:         m.Phone,
		Balance:       m.Balance,
		Level:         m.Level(),
		LastBonusYear: m.LastBonusYear,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.BirthDate != nil {
		dto.BirthDate = m.BirthDate.Format(dateLayout)
	}
	return dto
}

type ActivityDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ActivityDate string `json:"activity_date"`
	PointsReward int64  `json:"points_reward"`
	Capacity     int    `json:"capacity"`
	Status       string `json:"status"`
	ActiveSeats  int    `json:"active_seats"`
}

func toActivityDTO(a *loyalty.Activity, activeSeats int) ActivityDTO {
	return ActivityDTO{
		ID:           string(a.ID),
		Title:        a.Title,
		Description:  a.Description,
		ActivityDate: a.ActivityDate.Format(dateLayout),
		PointsReward: a.PointsReward,
		Capacity:     a.Capacity,
		Status:       string(a.Status),
		ActiveSeats:  activeSeats,
	}
}

type BookingDTO struct {
	ID                   string `json:"id"`
	MemberID             string `json:"member_id"`
	ActivityID           string `json:"activity_id"`
	Status               string `json:"status"`
	PointsAtRegistration int64  `json:"points_at_registration"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

func toBookingDTO(b *loyalty.Booking) BookingDTO {
	return BookingDTO{
		ID:                   string(b.ID),
		MemberID:             string(b.MemberID),
		ActivityID:           string(b.ActivityID),
		Status:               string(b.Status),
		PointsAtRegistration: b.PointsAtRegistration,
		CreatedAt:            b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            b.UpdatedAt.Format(time.RFC3339),
	}
}

type EntryDTO struct {
	ID            string `json:"id"`
	MemberID      string `json:"member_id"`
	Kind          string `json:"kind"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	BookingID     string `json:"booking_id,omitempty"`
	Penalized     bool   `json:"penalized,omitempty"`
	PenaltyReason string `json:"penalty_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:            string(e.ID),
		MemberID:      string(e.MemberID),
		Kind:          string(e.Kind),
		Amount:        e.Amount,
		Description:   e.Description,
		BookingID:     string(e.BookingID),
		Penalized:     e.Penalized,
		PenaltyReason: e.PenaltyReason,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339Nano),
	}
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

type EnrollmentResponse struct {
	Member               MemberDTO  `json:"member"`
	Booking              BookingDTO `json:"booking"`
	NewMember            bool       `json:"new_member"`
	Reactivated          bool       `json:"reactivated"`
	PointsEarned         int64      `json:"points_earned"`
	BirthdayBonusGranted bool       `json:"birthday_bonus_granted"`
}

type TransferResponse struct {
	Sender    MemberDTO `json:"sender"`
	Recipient MemberDTO `json:"recipient"`
	Amount    int64     `json:"amount"`
}

type PurchaseResponse struct {
	Gross int64    `json:"gross"`
	Fee   int64    `json:"fee"`
	Net   int64    `json:"net"`
	Entry EntryDTO `json:"entry"`
}

type ReconciliationDTO struct {
	MemberID        string `json:"member_id"`
	PreviousBalance int64  `json:"previous_balance"`
	TrueSum         int64  `json:"true_sum"`
	Corrected       bool   `json:"corrected"`
	Drift           int64  `json:"drift"`
}

func toReconciliationDTO(r loyalty.ReconciliationReport) ReconciliationDTO {
	return ReconciliationDTO{
		MemberID:        string(r.MemberID),
		PreviousBalance: r.PreviousBalance,
		TrueSum:         r.TrueSum,
		Corrected:       r.Corrected,
		Drift:           r.Drift(),
	}
}

type StatsDTO struct {
	Members           int   `json:"members"`
	PointsOutstanding int64 `json:"points_outstanding"`
	Activities        int   `json:"activities"`
	ActiveBookings    int   `json:"active_bookings"`
}

type NotificationDTO struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
