package contracts

// Platform identifies an advertising platform
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// IsMeta reports whether the platform is served by the Meta ads stack
func (p Platform) IsMeta() bool {
	return p == PlatformFacebook || p == PlatformInstagram
}

// ContentStyle classifies content for style-mix budgeting
type ContentStyle string

const (
	StyleSale     ContentStyle = "sale"
	StyleReview   ContentStyle = "review"
	StyleBranding ContentStyle = "branding"
	StyleEcom     ContentStyle = "ecom"
	StyleOther    ContentStyle = "other"
)

// ContentSource identifies who produced the content
type ContentSource string

const (
	SourceInfluencer ContentSource = "influencer"
	SourcePage       ContentSource = "page"
	SourceStaff      ContentSource = "staff"
	SourceUGC        ContentSource = "ugc"
)

// ContentStatus is the content lifecycle state
type ContentStatus string

const (
	StatusReady   ContentStatus = "ready"
	StatusTestAd  ContentStatus = "test_ad"
	StatusActive  ContentStatus = "active_ad"
	StatusPaused  ContentStatus = "paused"
	StatusExpired ContentStatus = "expired"
)

// GroupStructure describes how an ad group maps to content
type GroupStructure string

const (
	StructureSingleItem GroupStructure = "single_item" // one ad group per content item
	StructureMultiItem  GroupStructure = "multi_item"  // one ad group testing N content items
	StructureUnknown    GroupStructure = "unknown"
)

// AllocationMode selects the reallocation strategy for a budget plan
type AllocationMode string

const (
	ModeSingleItem AllocationMode = "single_item" // content items are the spending targets
	ModeMultiItem  AllocationMode = "multi_item"  // ad groups are the spending targets
	ModeManual     AllocationMode = "manual"      // never touched by the engine
)
