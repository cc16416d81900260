package inbox

// fixtureEmails is the static fallback inbox shown when no authenticated
// backend data is available: before sign-in, and when a fetch fails. The
// content mirrors the product's demo dataset.
func fixtureEmails() []Email {
	return []Email{
		{
			ID:        "1",
			Sender:    "sarah.chen@acmecorp.com",
			Subject:   "Q3 Budget Review - Action Required",
			Body:      "Hi, please review the attached Q3 budget figures before Friday's meeting. We need your sign-off on the marketing allocation by Thursday EOD.",
			Timestamp: "2025-01-14T09:15:00",
			Category:  CategoryImportant,
			Priority:  PriorityHigh,
			ActionItems: []ActionItem{
				{Task: "Review Q3 budget figures", Deadline: "2025-01-16", Priority: PriorityHigh},
				{Task: "Sign off on marketing allocation", Deadline: "2025-01-16", Priority: PriorityHigh},
			},
			Summary: "Budget sign-off needed before Friday's meeting.",
		},
		{
			ID:        "2",
			Sender:    "newsletter@devweekly.io",
			Subject:   "Dev Weekly #412: The State of WebAssembly",
			Body:      "This week: WebAssembly benchmarks, a deep dive into memory models, and five libraries you should know about.",
			Timestamp: "2025-01-14T06:30:00",
			Category:  CategoryNewsletter,
			Priority:  PriorityLow,
			Summary:   "Weekly developer newsletter.",
		},
		{
			ID:        "3",
			Sender:    "mike.johnson@clientco.com",
			Subject:   "Re: Project timeline discussion",
			Body:      "Thanks for the update. Can we schedule a call next Tuesday to walk through the revised milestones? Also, please send over the updated statement of work.",
			Timestamp: "2025-01-13T16:45:00",
			Category:  CategoryToDo,
			Priority:  PriorityMedium,
			ActionItems: []ActionItem{
				{Task: "Schedule call for Tuesday", Priority: PriorityMedium},
				{Task: "Send updated statement of work", Priority: PriorityMedium},
			},
			Summary: "Client wants a Tuesday call and the updated SOW.",
		},
		{
			ID:        "4",
			Sender:    "security@bank-update.com",
			Subject:   "URGENT: Your Account Will Be Suspended",
			Body:      "Dear customer, your bank account will be suspended within 24 hours unless you verify your details at the link below.",
			Timestamp: "2025-01-13T11:20:00",
			Category:  CategorySpam,
			Priority:  PriorityLow,
			Summary:   "Phishing attempt impersonating a bank.",
		},
		{
			ID:        "5",
			Sender:    "anna.williams@acmecorp.com",
			Subject:   "Team lunch on Thursday",
			Body:      "We're doing a team lunch at the usual place on Thursday at noon. Let me know if you have dietary restrictions.",
			Timestamp: "2025-01-12T14:05:00",
			Category:  CategoryImportant,
			Priority:  PriorityLow,
			Summary:   "Team lunch Thursday at noon.",
		},
		{
			ID:        "6",
			Sender:    "noreply@cloudmetrics.example",
			Subject:   "Your January usage report",
			Body:      "Your monthly usage summary is ready. Compute hours were up 12% over December.",
			Timestamp: "2025-01-12T08:00:00",
			Category:  CategoryNewsletter,
			Priority:  PriorityLow,
			Summary:   "Monthly usage report.",
		},
	}
}
