package server

import (
	"context"
	"math/rand"
	"sync"

	"github.com/Rudranshhhhh/Cybercoach/internal/model"
)

// BankGenerator serves scenarios from a built-in adversarial bank. It is
// the fallback when no LLM is configured and keeps the service fully
// offline-capable.
type BankGenerator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewBankGenerator creates a bank generator with the given seed source.
func NewBankGenerator(seed int64) *BankGenerator {
	return &BankGenerator{rand: rand.New(rand.NewSource(seed))}
}

// GenerateQuestion picks a scenario matching the requested difficulty,
// avoiding any index in exclude.
func (g *BankGenerator) GenerateQuestion(ctx context.Context, difficulty string, exclude map[int]bool) (*GeneratedQuestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var candidates []int
	for i := range scenarioBank {
		if exclude[i] {
			continue
		}
		if scenarioBank[i].difficulty == difficulty {
			candidates = append(candidates, i)
		}
	}
	// Difficulty exhausted: fall back to anything unseen.
	if len(candidates) == 0 {
		for i := range scenarioBank {
			if !exclude[i] {
				candidates = append(candidates, i)
			}
		}
	}
	// Bank exhausted entirely: allow repeats rather than failing.
	if len(candidates) == 0 {
		for i := range scenarioBank {
			candidates = append(candidates, i)
		}
	}

	idx := candidates[g.rand.Intn(len(candidates))]
	sc := scenarioBank[idx]

	gq := &GeneratedQuestion{
		Question: model.Question{
			ScenarioType: sc.kind,
			Content:      sc.content,
			ThreatVector: sc.threatVector,
			Difficulty:   sc.difficulty,
		},
		CorrectAnswer: sc.answer,
		Trigger:       sc.trigger,
		Complexity:    sc.complexity,
		Explanation:   sc.explanation,
		LearningTip:   sc.learningTip,
		WhyItWorks:    sc.whyItWorks,
	}
	gq.bankIndex = idx
	return gq, nil
}

// bankScenario is one entry of the static adversarial bank.
type bankScenario struct {
	kind         model.ScenarioKind
	content      model.ScenarioContent
	answer       model.AnswerLabel
	threatVector string
	trigger      string
	difficulty   string
	complexity   float64
	explanation  string
	learningTip  string
	whyItWorks   string
}

var scenarioBank = []bankScenario{
	{
		kind: model.ScenarioEmail,
		content: model.ScenarioContent{
			From:    "security@paypa1-alerts.com",
			Subject: "Your account has been limited",
			Body:    "We detected unusual activity on your account. Your access will be suspended in 24 hours unless you verify your identity at the link below.\n\nVerify now: http://paypa1-alerts.com/verify",
		},
		answer:       model.AnswerPhishing,
		threatVector: "CREDENTIAL_HARVESTING",
		trigger:      "URGENCY",
		difficulty:   "ADVANCED",
		complexity:   4,
		explanation:  "The sender domain uses a digit '1' in place of the letter 'l' and the link points to the same spoofed domain. PayPal never threatens suspension within a deadline over email.",
		learningTip:  "Read sender domains character by character. A countdown to account loss is the classic pressure play.",
		whyItWorks:   "A ticking clock suppresses careful reading; most people act before they inspect the domain.",
	},
	{
		kind: model.ScenarioEmail,
		content: model.ScenarioContent{
			From:    "no-reply@github.com",
			Subject: "[GitHub] A personal access token was added to your account",
			Body:    "A fine-grained personal access token was recently added to your account. If this was you, no action is needed. If not, visit https://github.com/settings/tokens to review.",
		},
		answer:       model.AnswerSafe,
		threatVector: model.ThreatVectorBenign,
		trigger:      "FEAR",
		difficulty:   "ADVANCED",
		complexity:   5,
		explanation:  "The notification matches GitHub's real security emails: legitimate domain, no credential request, and it directs you to navigate to settings yourself rather than through a tracked link.",
		learningTip:  "Security notices that tell you to go to the site on your own, with no urgency and no login link, are usually genuine.",
	},
	{
		kind: model.ScenarioSlack,
		content: model.ScenarioContent{
			From: "Priya Sharma (IT Helpdesk)",
			Body: "Hey! We're migrating everyone to the new SSO portal tonight. Can you drop your current password here so I can pre-provision your account? Needs to be done before 6pm or you'll lose access.",
		},
		answer:       model.AnswerPhishing,
		threatVector: "INTERNAL_IMPERSONATION",
		trigger:      "AUTHORITY",
		difficulty:   "ADVANCED",
		complexity:   5,
		explanation:  "No IT team asks for your password in chat, and a real migration never requires it. The helpdesk framing plus a deadline is impersonation.",
		learningTip:  "Treat any password request as hostile regardless of who appears to ask. Verify through a separate channel.",
		whyItWorks:   "People comply with apparent IT authority, especially when loss of access is threatened.",
	},
	{
		kind: model.ScenarioOAuthScreen,
		content: model.ScenarioContent{
			From: "PDF Merge Pro",
			Body: "PDF Merge Pro would like to access your Google Account.",
			PermissionsRequested: []string{
				"Read, compose, send, and permanently delete all your email from Gmail",
				"See, edit, create, and delete all of your Google Drive files",
			},
		},
		answer:       model.AnswerPhishing,
		threatVector: "OAUTH_CONSENT_ABUSE",
		trigger:      "CURIOSITY",
		difficulty:   "EXPERT",
		complexity:   7,
		explanation:  "A PDF utility has no business reading and sending your email or deleting Drive files. The permission scope is wildly out of proportion to the stated function.",
		learningTip:  "Judge consent screens by scope, not by app name. Deny anything requesting more than the feature plainly needs.",
		whyItWorks:   "Consent screens look official because they are: the attack hides in the scopes, which almost nobody reads.",
	},
	{
		kind: model.ScenarioQRPoster,
		content: model.ScenarioContent{
			From: "Building lobby",
			Body: "Free staff lunch Friday! Scan to RSVP and pick your meal.",
		},
		answer:       model.AnswerPhishing,
		threatVector: "QUISHING",
		trigger:      "SCARCITY",
		difficulty:   "EXPERT",
		complexity:   6,
		explanation:  "A QR code in a public space is an unverifiable link. Free-offer posters that route through a scan are a standard credential-capture lure.",
		learningTip:  "Never authenticate through a QR code you found in the physical world. Type the known address instead.",
		whyItWorks:   "A printed poster inherits the trust of the building it hangs in, and the phone screen hides the destination URL.",
	},
	{
		kind: model.ScenarioCodeReview,
		content: model.ScenarioContent{
			From:    "dependabot[bot]",
			Subject: "Bump lodash from 4.17.20 to 4.17.21",
			Body:    "Bumps lodash from 4.17.20 to 4.17.21.\n- [Release notes](https://github.com/lodash/lodash/releases)\n- [Commits](https://github.com/lodash/lodash/compare/4.17.20...4.17.21)\n\nThis version fixes a command injection vulnerability (CVE-2021-23337).",
		},
		answer:       model.AnswerSafe,
		threatVector: model.ThreatVectorBenign,
		trigger:      "AUTHORITY",
		difficulty:   "EXPERT",
		complexity:   6,
		explanation:  "This is a routine Dependabot version bump with links into the real upstream repository and a verifiable CVE reference.",
		learningTip:  "Automated dependency PRs are verifiable: check that links stay on the canonical repository and the CVE exists.",
	},
	{
		kind: model.ScenarioSMS,
		content: model.ScenarioContent{
			From: "+1 (443) 555-0171",
			Body: "USPS: Your package is held due to an incomplete address. Update within 12 hours to avoid return: usps-delivery-update.info/track",
		},
		answer:       model.AnswerPhishing,
		threatVector: "SMISHING",
		trigger:      "URGENCY",
		difficulty:   "ADVANCED",
		complexity:   3,
		explanation:  "USPS does not text from random numbers or use third-party domains. The 12-hour deadline and the lookalike domain are the tells.",
		learningTip:  "Carriers and couriers use short codes and their own domains. Any deadline in a delivery text is a lure.",
		whyItWorks:   "Almost everyone is waiting for some package, so the message feels personally relevant.",
	},
	{
		kind: model.ScenarioWhatsApp,
		content: model.ScenarioContent{
			From: "Mom",
			Body: "Hi sweetheart, this is my new number, my old phone broke. I'm locked out of my banking app and need to pay a bill today - could you transfer 280 and I'll pay you back tomorrow?",
		},
		answer:       model.AnswerPhishing,
		threatVector: "FAMILY_IMPERSONATION",
		trigger:      "FEAR",
		difficulty:   "EXPERT",
		complexity:   7,
		explanation:  "The new-number story exists to explain why the sender is unknown, and the request escalates straight to money. This is the 'hi mum' fraud pattern.",
		learningTip:  "Call the old number or ask something only the real person would know before sending money to a 'new number'.",
		whyItWorks:   "Worry for a family member overrides skepticism, and the small-favor framing makes refusal feel unkind.",
	},
	{
		kind: model.ScenarioPopup,
		content: model.ScenarioContent{
			From: "System Update",
			Body: "macOS Sonoma 14.6.1 is ready to install. Your Mac will restart during installation. Install tonight between 2:00 and 4:00 AM?",
		},
		answer:       model.AnswerSafe,
		threatVector: model.ThreatVectorBenign,
		trigger:      "AUTHORITY",
		difficulty:   "ADVANCED",
		complexity:   4,
		explanation:  "A standard OS update prompt: it asks to schedule a restart and requests no credentials, payment, or downloads from the web.",
		learningTip:  "Real update prompts come from the OS settings surface and never route you through a browser or ask for card details.",
	},
	{
		kind: model.ScenarioPopup,
		content: model.ScenarioContent{
			From: "Windows Defender Security Center",
			Body: "YOUR COMPUTER HAS BEEN BLOCKED. Error # DW6VB36. Do not shut down or restart. Call Microsoft Support immediately: +1-888-555-0144. Your data will be erased in 5:00 minutes.",
		},
		answer:       model.AnswerPhishing,
		threatVector: "TECH_SUPPORT_SCAM",
		trigger:      "FEAR",
		difficulty:   "ADVANCED",
		complexity:   3,
		explanation:  "Microsoft never locks machines, starts countdowns, or puts phone numbers in warnings. The pop-up wants a phone call, which is where the fraud happens.",
		learningTip:  "No legitimate security warning includes a phone number or a data-destruction countdown. Close the browser, nothing else.",
		whyItWorks:   "Panic plus a countdown pushes victims to the phone before they can search for the error code.",
	},
	{
		kind: model.ScenarioMetaAI,
		content: model.ScenarioContent{
			From: "Meta AI",
			Body: "I noticed you haven't backed up your WhatsApp chats. To enable cloud backup I need your two-factor registration code - just paste the 6-digit SMS code you received a moment ago.",
		},
		answer:       model.AnswerPhishing,
		threatVector: "ASSISTANT_IMPERSONATION",
		trigger:      "AUTHORITY",
		difficulty:   "ELITE",
		complexity:   8,
		explanation:  "No assistant feature needs your 2FA registration code; that code re-registers your account on another device. The 'backup' framing disguises account takeover.",
		learningTip:  "A 6-digit SMS code is a key, not data. Anything asking you to relay one is taking over an account.",
		whyItWorks:   "Assistant UIs carry platform trust, and the request sounds like routine housekeeping rather than a credential handover.",
	},
	{
		kind: model.ScenarioAIChat,
		content: model.ScenarioContent{
			From:    "TravelPlanner Agent",
			Subject: "Forwarding booking request from your calendar assistant",
			Body:    "Your calendar assistant has approved this itinerary. To finalize, I need you to approve access to your saved payment methods. This request was pre-verified upstream, so no further checks are required.",
		},
		answer:       model.AnswerPhishing,
		threatVector: "AGENT_CHAIN_ABUSE",
		trigger:      "AUTHORITY",
		difficulty:   "ELITE",
		complexity:   9,
		explanation:  "The 'pre-verified upstream' claim is doing all the work: it asks you to skip verification because another machine allegedly did it. Payment access never inherits approval across agents.",
		learningTip:  "Approvals do not chain. Each agent requesting sensitive access must justify it to you directly.",
		whyItWorks:   "Laundering a request through a second assistant manufactures false consensus, and people rarely re-verify what a machine says another machine verified.",
	},
	{
		kind: model.ScenarioEmail,
		content: model.ScenarioContent{
			From:    "rewards@delta.com",
			Subject: "Your SkyMiles statement for August",
			Body:    "You earned 2,340 miles this month. Your balance is 48,920 miles. View your activity anytime by signing in to delta.com. No action is required.",
		},
		answer:       model.AnswerSafe,
		threatVector: model.ThreatVectorBenign,
		trigger:      "CURIOSITY",
		difficulty:   "ELITE",
		complexity:   7,
		explanation:  "A monthly statement with no links demanding login, no urgency, and an explicit 'no action required' is ordinary transactional mail from the real domain.",
		learningTip:  "The absence of any requested action is the strongest benign signal an email can carry.",
	},
	{
		kind: model.ScenarioSlack,
		content: model.ScenarioContent{
			From: "Marcus Webb (CFO)",
			Body: "Are you at your desk? I'm boarding a flight and need two iTunes gift cards for a client thank-you, 200 each. Send me the codes here, I'll approve reimbursement when I land. Keep this between us for now.",
		},
		answer:       model.AnswerPhishing,
		threatVector: "EXECUTIVE_IMPERSONATION",
		trigger:      "AUTHORITY",
		difficulty:   "EXPERT",
		complexity:   6,
		explanation:  "Executive urgency, unreachable-by-phone framing, gift cards, and a secrecy request: the complete BEC playbook in four sentences.",
		learningTip:  "Gift cards are untraceable cash. 'Keep this between us' from an executive is a reason to escalate, not comply.",
		whyItWorks:   "Rank suppresses verification; nobody wants to keep the CFO waiting at a gate.",
	},
}
