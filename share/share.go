/*
Package share renders activities as plain-text messages for tenants and
builds the WhatsApp and SMS links that hand those messages to the phone.

Nothing is sent from here; the links open the landlord's own messaging app.
*/
package share

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dwella/rent-engine/ledger"
)

// DefaultCountryCode is used when a phone number carries no "+" prefix.
const DefaultCountryCode = "91"

type Channel string

const (
	ChannelText     Channel = "text"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelText, ChannelWhatsApp, ChannelSMS:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TEMPLATES
// =============================================================================

// Message returns the text shared with the tenant for an activity.
func Message(a ledger.Activity) string {
	switch a.Type {
	case ledger.ActivityElectricityBill:
		return fmt.Sprintf("Your Electricity Bill for %s\nDate: %s\nPrevious Reading: %s\nCurrent Reading: %s\nBase multiplier: %s\nTotal Amount: %s",
			a.Description,
			FormatDate(a.Date),
			a.PreviousMeterReading.Decimal.String(),
			a.CurrentMeterReading.Decimal.String(),
			a.BaseElectricityMultiplier.Decimal.String(),
			FormatINR(a.SignedAmount().Abs()),
		)
	case ledger.ActivityPayment:
		return fmt.Sprintf("Thank you for your payment of %s for %s.\nDate: %s\n\nWe appreciate your timely payment.",
			FormatINR(a.SignedAmount()),
			a.Description,
			FormatDate(a.Date),
		)
	default:
		return fmt.Sprintf("Activity Details:\nType: %s\nDescription: %s\nAmount: %s\nDate: %s",
			a.Type,
			a.Description,
			FormatINR(a.SignedAmount()),
			FormatDate(a.Date),
		)
	}
}

// FormatDate renders a date as DD/Mon/YYYY h:mm AM. Dates carry no time of
// day, so the time is always midnight.
func FormatDate(d ledger.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Midnight().Format("02/Jan/2006 3:04 PM")
}

// FormatINR renders an amount in rupees with Indian digit grouping, e.g.
// ₹1,25,000.00 and -₹500.50.
func FormatINR(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	sign := ""
	if amount.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// groupIndian groups the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return strings.Join(groups, ",") + "," + tail
}

// =============================================================================
// LINKS
// =============================================================================

var (
	nonDigits  = regexp.MustCompile(`[^0-9]`)
	plusPrefix = regexp.MustCompile(`^\+(\d{1,3})`)
)

// WhatsAppLink returns a wa.me link. The country code comes from a leading
// "+" when present; otherwise a leading 91 is taken as the code and any
// other number gets 91 prepended.
func WhatsAppLink(phone, message string) string {
	countryCode := DefaultCountryCode
	number := nonDigits.ReplaceAllString(phone, "")

	if m := plusPrefix.FindStringSubmatch(phone); m != nil {
		countryCode = m[1]
		number = number[len(countryCode):]
	} else if strings.HasPrefix(number, DefaultCountryCode) {
		number = number[len(DefaultCountryCode):]
	}

	return "https://wa.me/" + countryCode + number + "?text=" + escape(message)
}

// SMSLink returns an sms: link for the local number, a leading 91 removed.
func SMSLink(phone, message string) string {
	number := strings.TrimPrefix(nonDigits.ReplaceAllString(phone, ""), DefaultCountryCode)
	return "sms:" + number + "&body=" + escape(message)
}

// Link dispatches on the channel. ChannelText has no link.
func Link(channel Channel, phone, message string) string {
	switch channel {
	case ChannelWhatsApp:
		return WhatsAppLink(phone, message)
	case ChannelSMS:
		return SMSLink(phone, message)
	}
	return ""
}

// escape percent-encodes a message body, spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
