package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/internal/schedule"
)

// Property is one listing offered in the booking wizard.
type Property struct {
	ID       string
	Name     string
	Locality string
}

// DefaultProperties is the demo catalog; production wires the CRM listing
// feed here.
var DefaultProperties = []Property{
	{ID: "skyline-2bhk", Name: "Skyline Residency 2BHK", Locality: "Baner"},
	{ID: "skyline-3bhk", Name: "Skyline Residency 3BHK", Locality: "Baner"},
	{ID: "riverview-villa", Name: "Riverview Villas", Locality: "Wakad"},
	{ID: "green-acres-plot", Name: "Green Acres Plots", Locality: "Hinjewadi"},
}

const (
	afterHoursMessage = "Thanks for reaching out! Our team is available Mon-Sat, 9 AM to 7 PM. " +
		"Leave your message and we'll get back to you first thing."

	escalationMessage = "I'm connecting you with one of our property advisors — they'll reach out " +
		"to you on this number shortly."

	escalationPendingMessage = "Our property advisor already has your chat and will reach out " +
		"to you on this number shortly. Hang tight!"

	bookingAbortedMessage = "No problem, I've cancelled that booking request. Type *book* anytime to start again."

	persistenceFailureMessage = "Sorry, something went wrong on our side while saving that. " +
		"Please try again in a few minutes, or reply *agent* to talk to our team."

	noUpcomingVisitMessage = "I couldn't find an upcoming visit booked on this number. " +
		"Type *book* if you'd like to schedule one."
)

func visitCancelledMessage(appt schedule.Appointment) messaging.Outbound {
	return messaging.Text(fmt.Sprintf(
		"Done — your visit on %s has been cancelled. Type *book* anytime to pick a new time.",
		appt.ScheduledAt.Format("Mon, 2 Jan at 3:04 PM"),
	))
}

// fallbackMessages cycle as unmatched attempts accumulate.
var fallbackMessages = []string{
	"Sorry, I didn't quite get that. You can say *book* for a site visit, *EMI* for a loan estimate, or *agent* to talk to our team.",
	"I'm still not sure what you need. Try one of the menu options below.",
	"Let me get a human to help you with this.",
}

func welcomeMenu(firstContact bool) []messaging.Outbound {
	greeting := "Welcome to RealNex! I'm your property assistant."
	if !firstContact {
		greeting = "Welcome back! What can I help you with today?"
	}
	return []messaging.Outbound{
		messaging.Buttons(greeting+"\n\nWhat would you like to do?",
			messaging.Button{ID: "book_visit", Title: "Book a site visit"},
			messaging.Button{ID: "emi_calculator", Title: "EMI calculator"},
			messaging.Button{ID: "human_agent", Title: "Talk to an agent"},
		),
	}
}

func whatNextMenu() messaging.Outbound {
	return messaging.Buttons("Anything else I can help with?",
		messaging.Button{ID: "book_visit", Title: "Book a site visit"},
		messaging.Button{ID: "emi_calculator", Title: "EMI calculator"},
		messaging.Button{ID: "human_agent", Title: "Talk to an agent"},
	)
}

func propertyList(properties []Property) messaging.Outbound {
	rows := make([]messaging.ListRow, 0, len(properties))
	for i, p := range properties {
		rows = append(rows, messaging.ListRow{
			ID:          p.ID,
			Title:       fmt.Sprintf("%d. %s", i+1, p.Name),
			Description: p.Locality,
		})
	}
	return messaging.List("Available properties",
		"Which property would you like to visit? Reply with the number or name.",
		messaging.ListSection{Title: "Properties", Rows: rows},
	)
}

func slotList(date time.Time, slots []schedule.TimeSlot) messaging.Outbound {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the available times on %s:\n", date.Format("Mon, 2 Jan"))
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, slot.Start.Format("3:04 PM"), slot.End.Format("3:04 PM"))
	}
	b.WriteString("\nReply with a number or a time (e.g. 11 AM).")
	return messaging.Text(b.String())
}

func documentChecklist() messaging.Outbound {
	return messaging.List("Document checklist",
		"Here's what you'll need for a property purchase:",
		messaging.ListSection{
			Title: "Identity & income",
			Rows: []messaging.ListRow{
				{ID: "doc-pan", Title: "PAN card"},
				{ID: "doc-aadhaar", Title: "Aadhaar card"},
				{ID: "doc-salary", Title: "Salary slips (3 months)", Description: "Or ITR for self-employed"},
				{ID: "doc-bank", Title: "Bank statements (6 months)"},
			},
		},
		messaging.ListSection{
			Title: "Property",
			Rows: []messaging.ListRow{
				{ID: "doc-agreement", Title: "Sale agreement"},
				{ID: "doc-ec", Title: "Encumbrance certificate"},
				{ID: "doc-occupancy", Title: "Occupancy certificate"},
			},
		},
	)
}

func bookingSummary(appt schedule.Appointment, property Property) messaging.Outbound {
	return messaging.Text(fmt.Sprintf(
		"Your site visit is confirmed! 🎉\n\n"+
			"Property: %s, %s\n"+
			"When: %s\n"+
			"Visitors: %d\n"+
			"Booking ID: %s\n\n"+
			"We'll send you a reminder before the visit. Reply *cancel visit* anytime to cancel.",
		property.Name, property.Locality,
		appt.ScheduledAt.Format("Mon, 2 Jan at 3:04 PM"),
		appt.VisitorCount,
		appt.ID,
	))
}

// formatINR renders an amount with Indian digit grouping (12,34,56,789).
func formatINR(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)

	if len(whole) > 3 {
		head := whole[:len(whole)-3]
		tail := whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		whole = strings.Join(parts, ",") + "," + tail
	}
	if neg {
		return "-₹" + whole
	}
	return "₹" + whole
}
