package texts

// Symbolic names for every prompt the call flows speak. Operators override
// the defaults per user scope through the texts table.
const (
	IdentifyAskTZ         = "IDENTIFY.ASK_TZ"
	IdentifyWelcome       = "IDENTIFY.WELCOME"
	IdentifyNotFound      = "IDENTIFY.NOT_FOUND"
	IdentifyNoActiveClass = "IDENTIFY.NO_ACTIVE_CLASS"

	GeneralInvalidInput = "GENERAL.INVALID_INPUT"
	GeneralMaxAttempts  = "GENERAL.MAX_ATTEMPTS"
	GeneralNoData       = "GENERAL.NO_DATA"
	GeneralSaveFailed   = "GENERAL.SAVE_FAILED"
	GeneralConfirm      = "GENERAL.CONFIRM_VALUE"
	GeneralGoodbye      = "GENERAL.GOODBYE"

	MenuIntro             = "MENU.INTRO"
	MenuOptionReport      = "MENU.OPTION_REPORT"
	MenuOptionLottery     = "MENU.OPTION_LOTTERY"
	MenuOptionVoucher     = "MENU.OPTION_VOUCHER"
	MenuOptionFulfillment = "MENU.OPTION_FULFILLMENT"

	EventAskType      = "EVENT.ASK_TYPE"
	EventTypeOption   = "EVENT.TYPE_OPTION"
	EventConfirmType  = "EVENT.CONFIRM_TYPE"
	EventAskDate      = "EVENT.ASK_DATE"
	EventConfirmDate  = "EVENT.CONFIRM_DATE"
	EventModeCreate   = "EVENT.MODE_CREATE"
	EventModeEdit     = "EVENT.MODE_EDIT"
	EventAskLevel     = "EVENT.ASK_LEVEL"
	EventLevelOption  = "EVENT.LEVEL_OPTION"
	EventConfirmLevel = "EVENT.CONFIRM_LEVEL"
	EventSaved        = "EVENT.SAVED"

	GiftAsk     = "GIFT.ASK"
	GiftOption  = "GIFT.OPTION"
	GiftConfirm = "GIFT.CONFIRM"
	GiftCurrent = "GIFT.CURRENT"

	ProxyMenu          = "PROXY.MENU"
	ProxyAskClassmate  = "PROXY.ASK_CLASSMATE_TZ"
	ProxyConfirmTarget = "PROXY.CONFIRM_TARGET"

	LotteryAskTrack     = "LOTTERY.ASK_TRACK"
	LotteryOption       = "LOTTERY.OPTION"
	LotteryConfirmTrack = "LOTTERY.CONFIRM_TRACK"
	LotterySaved        = "LOTTERY.SAVED"

	VoucherAskTrack     = "VOUCHER.ASK_TRACK"
	VoucherOption       = "VOUCHER.OPTION"
	VoucherConfirmTrack = "VOUCHER.CONFIRM_TRACK"
	VoucherSaved        = "VOUCHER.SAVED"

	FulfillIntro     = "FULFILL.INTRO"
	FulfillAskRating = "FULFILL.ASK_RATING"
	FulfillSaved     = "FULFILL.SAVED"
)

var defaults = map[string]string{
	IdentifyAskTZ:         "Welcome. Please enter your nine digit identity number.",
	IdentifyWelcome:       "Hello {name}.",
	IdentifyNotFound:      "We could not find your details. Please contact your coordinator. Goodbye.",
	IdentifyNoActiveClass: "You are not assigned to an active class this year. Goodbye.",

	GeneralInvalidInput: "That entry was not recognized. Please try again.",
	GeneralMaxAttempts:  "Too many unrecognized entries. Goodbye.",
	GeneralNoData:       "This service is not configured yet. Please call back later. Goodbye.",
	GeneralSaveFailed:   "We are sorry, something went wrong saving your report. Please call back. Goodbye.",
	GeneralConfirm:      "You entered {value}.",
	GeneralGoodbye:      "Thank you. Goodbye.",

	MenuIntro:             "Main menu.",
	MenuOptionReport:      "To report an event, press {key}.",
	MenuOptionLottery:     "To enter the lottery, press {key}.",
	MenuOptionVoucher:     "To choose a voucher track, press {key}.",
	MenuOptionFulfillment: "To answer the follow up survey, press {key}.",

	EventAskType:      "Which event would you like to report?",
	EventTypeOption:   "For {name}, press {key}.",
	EventConfirmType:  "You chose {name}.",
	EventAskDate:      "Enter the event date as eight digits, day month year.",
	EventConfirmDate:  "You entered {date}.",
	EventModeCreate:   "This is a new report.",
	EventModeEdit:     "A report already exists for this event. Your entries will update it.",
	EventAskLevel:     "Choose a level.",
	EventLevelOption:  "For {name}, press {key}.",
	EventConfirmLevel: "You chose {name}.",
	EventSaved:        "Your {type} report for {date} was saved. Thank you.",

	GiftAsk:     "Choose a gift. When you are done, press 0.",
	GiftOption:  "For {name}, press {key}.",
	GiftConfirm: "You chose {name}.",
	GiftCurrent: "You previously chose {names}. New choices replace them.",

	ProxyMenu:          "To report for yourself, press 1. To report for a classmate, press 2.",
	ProxyAskClassmate:  "Enter the classmate's nine digit identity number.",
	ProxyConfirmTarget: "Reporting for {name}.",

	LotteryAskTrack:     "Choose a lottery track.",
	LotteryOption:       "For {name}, press {key}.",
	LotteryConfirmTrack: "You chose the {name} track.",
	LotterySaved:        "You are entered in the {name} track.",

	VoucherAskTrack:     "Choose a voucher track.",
	VoucherOption:       "For {name}, press {key}.",
	VoucherConfirmTrack: "You chose the {name} voucher track.",
	VoucherSaved:        "Your voucher choice {name} was saved.",

	FulfillIntro:     "A few questions about your {type} on {date}.",
	FulfillAskRating: "{question} Rate from 1 to 5.",
	FulfillSaved:     "Thank you for your answers.",
}

// SurveyQuestionKey names the catalog entry for survey question n (1-based).
// n must not exceed SurveyQuestionCount; each question has its own key so
// stored answers never collide.
func SurveyQuestionKey(n int) string {
	return surveyKeys[n-1]
}

// SurveyQuestionCount is the number of distinct survey questions available.
func SurveyQuestionCount() int {
	return len(surveyKeys)
}

var surveyKeys = []string{
	"FULFILL.Q_RECEIVED",
	"FULFILL.Q_SATISFACTION",
	"FULFILL.Q_RECOMMEND",
}

func init() {
	defaults["FULFILL.Q_RECEIVED"] = "Did the gift arrive on time?"
	defaults["FULFILL.Q_SATISFACTION"] = "How satisfied were you with the gift?"
	defaults["FULFILL.Q_RECOMMEND"] = "How likely are you to recommend the program?"
}
