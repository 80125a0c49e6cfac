package domain

import (
	"sort"
	"strings"
)

// Intent is the closed-vocabulary support category assigned to a message.
type Intent string

const (
	// === Conversation ===
	IntentGreeting         Intent = "greeting"
	IntentThanks           Intent = "thanks"
	IntentGoodbye          Intent = "goodbye"
	IntentPositiveFeedback Intent = "positive_feedback"

	// === Orders & Shipping ===
	IntentGetOrder              Intent = "get_order"
	IntentShippingInfo          Intent = "shipping_info"
	IntentCancelOrder           Intent = "cancel_order"
	IntentChangeOrder           Intent = "change_order"
	IntentChangeShippingAddress Intent = "change_shipping_address"
	IntentExpeditedShipping     Intent = "expedited_shipping"
	IntentShippingRestrictions  Intent = "shipping_restrictions"
	IntentWrongOrder            Intent = "wrong_order"
	IntentMissingItem           Intent = "missing_item"
	IntentRequestInvoice        Intent = "request_invoice"

	// === Payments & Refunds ===
	IntentPaymentInfo     Intent = "payment_info"
	IntentPaymentFailed   Intent = "payment_failed"
	IntentCurrencySupport Intent = "currency_support"
	IntentGiftCard        Intent = "gift_card"
	IntentRefund          Intent = "refund"
	IntentTrackRefund     Intent = "track_refund"

	// === Account ===
	IntentAccountIssue           Intent = "account_issue"
	IntentDeleteAccount          Intent = "delete_account"
	IntentUpdateAccount          Intent = "update_account"
	IntentNewsletterSubscription Intent = "newsletter_subscription"
	IntentPrivacyPolicy          Intent = "privacy_policy"

	// === Products ===
	IntentProductIssue   Intent = "product_issue"
	IntentStockInfo      Intent = "stock_info"
	IntentRestockAlert   Intent = "restock_alert"
	IntentSizingHelp     Intent = "sizing_help"
	IntentProductCare    Intent = "product_care"
	IntentWarrantyInfo   Intent = "warranty_info"
	IntentAuthenticity   Intent = "authenticity"
	IntentProductCatalog Intent = "product_catalog"
	IntentPriceQuery     Intent = "price_query"
	IntentPromosDiscount Intent = "promos_discounts"
	IntentGiftWrapping   Intent = "gift_wrapping"

	// === Store ===
	IntentStoreHours       Intent = "store_hours"
	IntentContactSupport   Intent = "contact_support"
	IntentPhysicalLocation Intent = "physical_location"
	IntentLoyaltyProgram   Intent = "loyalty_program"
	IntentCareers          Intent = "careers"

	// IntentUnknown is returned whenever the classifier declines to guess.
	IntentUnknown Intent = "unknown"

	// IntentOutOfScope exists only in the synthetic templates; it is not part
	// of the allowed vocabulary and is dropped during aggregation.
	IntentOutOfScope Intent = "out_of_scope"
)

var allowedIntents = map[Intent]struct{}{
	IntentGreeting: {}, IntentThanks: {}, IntentGoodbye: {}, IntentPositiveFeedback: {},
	IntentGetOrder: {}, IntentShippingInfo: {}, IntentPaymentInfo: {}, IntentAccountIssue: {},
	IntentPromosDiscount: {}, IntentStockInfo: {}, IntentSizingHelp: {},
	IntentRefund: {}, IntentProductIssue: {}, IntentWrongOrder: {},
	IntentCancelOrder: {}, IntentChangeOrder: {}, IntentChangeShippingAddress: {},
	IntentTrackRefund: {}, IntentRequestInvoice: {}, IntentMissingItem: {},
	IntentExpeditedShipping: {}, IntentShippingRestrictions: {},
	IntentDeleteAccount: {}, IntentUpdateAccount: {}, IntentNewsletterSubscription: {}, IntentPrivacyPolicy: {},
	IntentPaymentFailed: {}, IntentCurrencySupport: {}, IntentGiftCard: {},
	IntentRestockAlert: {}, IntentProductCare: {}, IntentWarrantyInfo: {}, IntentAuthenticity: {},
	IntentStoreHours: {}, IntentContactSupport: {}, IntentPhysicalLocation: {}, IntentLoyaltyProgram: {},
	IntentCareers: {}, IntentGiftWrapping: {}, IntentProductCatalog: {}, IntentPriceQuery: {}, IntentUnknown: {},
}

// intentAliases maps legacy or source-specific labels onto the vocabulary.
// It is the only remapping table; every ingestion path goes through NormalizeIntent.
var intentAliases = map[string]Intent{
	"refund_request":     IntentRefund,
	"order_tracking":     IntentGetOrder,
	"availability_check": IntentStockInfo,
	"delivery_query":     IntentShippingInfo,
}

// IsAllowed reports whether the intent belongs to the closed vocabulary.
func (i Intent) IsAllowed() bool {
	_, ok := allowedIntents[i]
	return ok
}

func (i Intent) String() string { return string(i) }

// AllowedIntents returns the vocabulary in sorted order.
func AllowedIntents() []Intent {
	out := make([]Intent, 0, len(allowedIntents))
	for i := range allowedIntents {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// NormalizeIntent trims the raw label and applies the alias table. It does
// not validate; callers check IsAllowed on the result.
func NormalizeIntent(raw string) Intent {
	label := strings.TrimSpace(raw)
	if alias, ok := intentAliases[label]; ok {
		return alias
	}
	return Intent(label)
}
