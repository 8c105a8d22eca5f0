package ingest

import "accessgate/internal/mail"

// DemoMessages is the sample inbox used when no real source is configured:
// two plausible access requests and one email that is not one.
func DemoMessages() []mail.Message {
	return []mail.Message{
		{
			ID:      "demo-001",
			Subject: "Access Request: Production Database",
			From:    "john.doe@company.com",
			Date:    "Mon, 6 Jan 2026 10:30:00 -0800",
			Body: `Hi Team,

I need read access to the production database for the customer support
dashboard project. I'll be working on some analytics queries to help improve
our customer service response times.

This is needed by end of week for the quarterly review.

Thanks,
John Doe
Customer Support Team`,
		},
		{
			ID:      "demo-002",
			Subject: "Urgent: AWS S3 Access Needed",
			From:    "jane.smith@company.com",
			Date:    "Mon, 6 Jan 2026 11:45:00 -0800",
			Body: `Hello,

I urgently need write access to the s3://company-data-backup bucket to
restore some accidentally deleted files. This is blocking the entire
marketing team from accessing their campaign data.

Can someone please grant me access ASAP? This is critical.

Best regards,
Jane Smith
Marketing Operations`,
		},
		{
			ID:      "demo-003",
			Subject: "Meeting reminder for tomorrow",
			From:    "bob.wilson@company.com",
			Date:    "Mon, 6 Jan 2026 14:20:00 -0800",
			Body: `Hey everyone,

Just a reminder that we have our weekly standup tomorrow at 10 AM.

See you there!
Bob`,
		},
	}
}
