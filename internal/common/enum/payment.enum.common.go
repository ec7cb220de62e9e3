package enum

/*----------- PaymentTypeEnum -----------*/

// PaymentTypeEnum values are the numeric codes the order backend expects in
// the create_order message.
type PaymentTypeEnum int

const (
	ONLINE PaymentTypeEnum = 1
	CASH   PaymentTypeEnum = 2
)

func (e PaymentTypeEnum) ToString() string {
	switch e {
	case ONLINE:
		return "online"
	case CASH:
		return "cash"
	}
	return ""
}

func (e PaymentTypeEnum) IsValid() bool {
	switch e {
	case ONLINE, CASH:
		return true
	}
	return false
}

/*----------- DeliveryTypeEnum -----------*/

type DeliveryTypeEnum int

const (
	PICKUP   DeliveryTypeEnum = 1
	DELIVERY DeliveryTypeEnum = 2
)

func (e DeliveryTypeEnum) ToString() string {
	switch e {
	case PICKUP:
		return "pickup"
	case DELIVERY:
		return "delivery"
	}
	return ""
}

func (e DeliveryTypeEnum) IsValid() bool {
	switch e {
	case PICKUP, DELIVERY:
		return true
	}
	return false
}

/*----------- PaymentStepEnum -----------*/

// PaymentStepEnum names the external call of the payment pipeline that
// failed, so the user knows which stage to repeat.
type PaymentStepEnum string

const (
	STEP_CREATE_RECEIPT  PaymentStepEnum = "create_receipt"
	STEP_CREATE_CARD     PaymentStepEnum = "create_card"
	STEP_GET_VERIFY_CODE PaymentStepEnum = "get_verify_code"
	STEP_VERIFY_CARD     PaymentStepEnum = "verify_card"
	STEP_PAY_RECEIPT     PaymentStepEnum = "pay_receipt"
)

func (e PaymentStepEnum) ToString() string {
	return string(e)
}

func (e PaymentStepEnum) IsValid() bool {
	switch e {
	case STEP_CREATE_RECEIPT, STEP_CREATE_CARD, STEP_GET_VERIFY_CODE, STEP_VERIFY_CARD, STEP_PAY_RECEIPT:
		return true
	}
	return false
}

/*----------- PaymentStateEnum -----------*/

type PaymentStateEnum string

const (
	IDLE              PaymentStateEnum = "IDLE"
	RECEIPT_CREATED   PaymentStateEnum = "RECEIPT_CREATED"
	CARD_TOKENIZED    PaymentStateEnum = "CARD_TOKENIZED"
	CODE_REQUESTED    PaymentStateEnum = "CODE_REQUESTED"
	VERIFIED_AND_PAID PaymentStateEnum = "VERIFIED_AND_PAID"
	FAILED            PaymentStateEnum = "FAILED"
)

func (e PaymentStateEnum) ToString() string {
	return string(e)
}

func (e PaymentStateEnum) IsTerminal() bool {
	return e == VERIFIED_AND_PAID || e == FAILED
}

func (e PaymentStateEnum) IsValid() bool {
	switch e {
	case IDLE, RECEIPT_CREATED, CARD_TOKENIZED, CODE_REQUESTED, VERIFIED_AND_PAID, FAILED:
		return true
	}
	return false
}
