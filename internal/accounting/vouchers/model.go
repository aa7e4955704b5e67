package vouchers

import (
	"time"

	"github.com/shopspring/decimal"
)

// idempotencyModule scopes Idempotency-Key values to voucher creation.
const idempotencyModule = "vouchers"

// AddInput is the payload accepted by Service.Add.
type AddInput struct {
	Date          time.Time       `json:"date" validate:"required"`
	Type          string          `json:"type" validate:"required,oneof=Payment Receipt Journal Contra"`
	Amount        decimal.Decimal `json:"amount"`
	DebitAccount  string          `json:"debitAccount" validate:"required,max=120"`
	CreditAccount string          `json:"creditAccount" validate:"required,max=120"`
	Narration     string          `json:"narration" validate:"max=500"`
}
