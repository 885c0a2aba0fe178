// ABOUTME: Closed vocabularies for contact classification
// ABOUTME: Lifecycle stages and tags the engine is allowed to persist
package models

// Lifecycle stages.
const (
	StageProspect        = "Prospect"
	StageNewClient       = "New Client"
	StageCoreClient      = "Core Client"
	StageReferringClient = "Referring Client"
	StageVIPClient       = "VIP Client"
	StageAtRiskClient    = "At Risk Client"
	StageLostClient      = "Lost Client"
)

// DefaultStage is assigned at first enrichment and to anything unrecognized.
const DefaultStage = StageProspect

// LifecycleStages lists every allowed stage in display order.
var LifecycleStages = []string{
	StageProspect,
	StageNewClient,
	StageCoreClient,
	StageReferringClient,
	StageVIPClient,
	StageAtRiskClient,
	StageLostClient,
}

// Tags.
const (
	TagCalendarActive   = "calendar-active"
	TagEmailActive      = "email-active"
	TagHighEngagement   = "high-engagement"
	TagMeetingFocused   = "meeting-focused"
	TagEmailFocused     = "email-focused"
	TagNewClient        = "new-client"
	TagRegularAttendee  = "regular-attendee"
	TagWorkshopAttendee = "workshop-attendee"
	TagClassAttendee    = "class-attendee"
	TagOneOnOne         = "one-on-one"
	TagConsultation     = "consultation"
	TagRetreatInterest  = "retreat-interest"
	TagReferralSource   = "referral-source"
	TagPaymentActive    = "payment-active"
	TagNeedsFollowUp    = "needs-follow-up"
	TagAtRisk           = "at-risk"
	TagVIP              = "vip"
	TagInactive         = "inactive"
)

// AllowedTags is the closed tag vocabulary.
var AllowedTags = []string{
	TagCalendarActive,
	TagEmailActive,
	TagHighEngagement,
	TagMeetingFocused,
	TagEmailFocused,
	TagNewClient,
	TagRegularAttendee,
	TagWorkshopAttendee,
	TagClassAttendee,
	TagOneOnOne,
	TagConsultation,
	TagRetreatInterest,
	TagReferralSource,
	TagPaymentActive,
	TagNeedsFollowUp,
	TagAtRisk,
	TagVIP,
	TagInactive,
}

// DefaultMaxTags caps how many tags a contact carries.
const DefaultMaxTags = 8

var (
	stageSet = toSet(LifecycleStages)
	tagSet   = toSet(AllowedTags)
)

// IsLifecycleStage reports whether s is a member of the stage enum.
func IsLifecycleStage(s string) bool {
	return stageSet[s]
}

// IsAllowedTag reports whether s is in the tag vocabulary.
func IsAllowedTag(s string) bool {
	return tagSet[s]
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
