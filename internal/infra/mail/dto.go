package mail

type EmailSender struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	TemplateDir string
}

// subjects maps template names to subject lines. Unknown templates fall back
// to defaultSubject.
var subjects = map[string]string{
	"welcome":                 "Thanks for reaching out to GraniteFlow!",
	"follow_up":               "Still thinking about your countertops?",
	"internal_new_lead":       "[CRM] New lead captured",
	"internal_payment_failed": "[CRM] Payment failed",
	"scheduling_link":         "Book your free estimate call",
	"estimate_follow_up":      "Any questions about your estimate?",
	"production_handoff":      "[CRM] Contract signed - schedule production",
	"review_request":          "How did we do? Leave us a review",
	"maintenance_reminder":    "Time for your annual countertop check-up",
	"payment_confirmation":    "Payment received - thank you!",
	"payment_failed":          "There was a problem with your payment",
	"invoice_receipt":         "Your GraniteFlow receipt",
	"dispute_alert":           "[CRM] Chargeback opened",
	"rep_assignment":          "[CRM] A new lead was assigned to you",
	"seq_welcome":             "Welcome to GraniteFlow",
	"seq_why_granite":         "Why homeowners choose natural stone",
	"seq_portfolio":           "Recent kitchens we are proud of",
	"seq_check_in":            "Checking in on your project",
	"seq_vip_welcome":         "Your dedicated design consultation awaits",
	"seq_design_consult":      "Let's design your dream kitchen",
	"seq_premium_portfolio":   "Premium installs, up close",
	"ret_six_month_check":     "Six months in - how are the counters?",
	"ret_anniversary":         "One year with your new countertops",
	"ret_refresh_offer":       "Ready for your next project?",
	"ret_care_tips":           "Keep your stone looking new",
}

const defaultSubject = "An update from GraniteFlow"
