package email

import (
	"fmt"
	"time"
)

const brandName = "$wap"

func welcomeEmail(userName, skillsToOffer, servicesNeeded string) Content {
	name := orDefault(userName, "there")
	offers := orDefault(skillsToOffer, "Not set yet")
	needs := orDefault(servicesNeeded, "Not set yet")

	return Content{
		Subject: fmt.Sprintf("Welcome to %s!", brandName),
		HTML: fmt.Sprintf(`<h1>Welcome to %s!</h1>
<p>Hey %s,</p>
<p>You're in. %s connects you with people for skill exchanges — no money needed, just swap what you know for what you want to learn.</p>
<p><strong>You can teach:</strong> %s<br><strong>You want to learn:</strong> %s</p>
<p>We'll notify you when we find great matches.</p>`, brandName, name, brandName, offers, needs),
		Text: fmt.Sprintf("Welcome to %s!\n\nHey %s,\n\nYou can teach: %s\nYou want to learn: %s\n\nWe'll notify you when we find great matches.",
			brandName, name, offers, needs),
	}
}

func matchNotificationEmail(userName string, m MatchInfo) Content {
	matchName := orDefault(m.DisplayName, "Someone")
	return Content{
		Subject: fmt.Sprintf("New match: %s", matchName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p>We found a new match for you: <strong>%s</strong> (compatibility %.0f%%).</p>
<p><strong>They offer:</strong> %s<br><strong>They need:</strong> %s</p>`,
			userName, matchName, m.Score*100, m.SkillsToOffer, m.ServicesNeeded),
		Text: fmt.Sprintf("Hey %s,\n\nNew match: %s (compatibility %.0f%%)\nThey offer: %s\nThey need: %s",
			userName, matchName, m.Score*100, m.SkillsToOffer, m.ServicesNeeded),
	}
}

func swapRequestEmail(recipientName, requesterName, requesterOffers, requesterNeeds, message, requestID string) Content {
	intro := ""
	if message != "" {
		intro = fmt.Sprintf("\n\nTheir message: %q", message)
	}
	return Content{
		Subject: fmt.Sprintf("%s wants to swap skills with you", requesterName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p><strong>%s</strong> sent you a swap request.</p>
<p><strong>They offer:</strong> %s<br><strong>They need:</strong> %s</p>%s`,
			recipientName, requesterName, requesterOffers, requesterNeeds, htmlize(intro)),
		Text: fmt.Sprintf("Hey %s,\n\n%s sent you a swap request.\nThey offer: %s\nThey need: %s%s",
			recipientName, requesterName, requesterOffers, requesterNeeds, intro),
	}
}

func swapAcceptedEmail(requesterName, recipientName, conversationID string) Content {
	return Content{
		Subject: fmt.Sprintf("%s accepted your swap request!", recipientName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p><strong>%s</strong> accepted your swap request. A conversation has been started.</p>`, requesterName, recipientName),
		Text: fmt.Sprintf("Hey %s,\n\n%s accepted your swap request. A conversation has been started (id: %s).",
			requesterName, recipientName, conversationID),
	}
}

func swapDeclinedEmail(requesterName, recipientName string) Content {
	return Content{
		Subject: fmt.Sprintf("%s declined your swap request", recipientName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p><strong>%s</strong> declined your swap request. Keep exploring — there are plenty of other matches.</p>`, requesterName, recipientName),
		Text: fmt.Sprintf("Hey %s,\n\n%s declined your swap request. Keep exploring — there are plenty of other matches.",
			requesterName, recipientName),
	}
}

func newMessageEmail(recipientName, senderName, preview, conversationID string) Content {
	return Content{
		Subject: fmt.Sprintf("New message from %s", senderName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p><strong>%s</strong> sent you a message:</p>
<blockquote>%s</blockquote>`, recipientName, senderName, preview),
		Text: fmt.Sprintf("Hey %s,\n\n%s sent you a message:\n\n%s", recipientName, senderName, preview),
	}
}

func completionDeadlineEmail(recipientName, otherName string, autoCompleteAt time.Time) Content {
	deadline := autoCompleteAt.Format("Jan 2, 3:04 PM MST")
	return Content{
		Subject: fmt.Sprintf("%s marked your swap complete", otherName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p><strong>%s</strong> marked your swap complete. Confirm the hours by %s or it auto-completes with their numbers.</p>`,
			recipientName, otherName, deadline),
		Text: fmt.Sprintf("Hey %s,\n\n%s marked your swap complete. Confirm the hours by %s or it auto-completes with their numbers.",
			recipientName, otherName, deadline),
	}
}

func disputeRaisedEmail(recipientName, disputerName, reason string) Content {
	return Content{
		Subject: fmt.Sprintf("%s disputed your swap", disputerName),
		HTML: fmt.Sprintf(`<p>Hey %s,</p>
<p><strong>%s</strong> disputed the completion of your swap.</p>
<p><strong>Reason:</strong> %s</p>`, recipientName, disputerName, reason),
		Text: fmt.Sprintf("Hey %s,\n\n%s disputed the completion of your swap.\nReason: %s",
			recipientName, disputerName, reason),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func htmlize(s string) string {
	if s == "" {
		return ""
	}
	return "<p>" + s + "</p>"
}
