package domain

import "time"

// Ticket is a single-use claim-check proving a paid order is eligible for
// in-person pickup. One ticket per order; IsUsed flips false -> true exactly
// once, atomically with the order's pickup transition.
type Ticket struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	UniqueCode string     `json:"unique_code"`
	QRPayload  string     `json:"qr_payload"`
	IsUsed     bool       `json:"is_used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	UsedBy     string     `json:"used_by,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsExpired is derived, never stored; expired tickets are kept for audit.
func (t *Ticket) IsExpired(now time.Time) bool {
	return t != nil && t.ExpiresAt.Before(now)
}

// CanBeUsed reports whether redemption may proceed. The same check runs once
// during verify (advisory) and again inside the redeem transaction (binding).
func (t *Ticket) CanBeUsed(now time.Time) error {
	if t == nil {
		return ErrTicketNotFound
	}
	if t.IsUsed {
		return NewErrorWithDetails(ErrCodeConflict, "ticket already used", RedemptionRecord{UsedAt: t.UsedAt, UsedBy: t.UsedBy})
	}
	if t.IsExpired(now) {
		return ErrTicketExpired
	}
	return nil
}

// RedemptionRecord identifies who redeemed a ticket and when. It travels on
// the "already used" error so a second scanner sees the first redemption.
type RedemptionRecord struct {
	UsedAt *time.Time `json:"used_at,omitempty"`
	UsedBy string     `json:"used_by,omitempty"`
}
