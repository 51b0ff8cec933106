package constants

// Concurrency constants
const (
	// MaxConcurrentWrites bounds in-flight store calls started by a single fan-out
	// (batch creates, relationship hydration)
	MaxConcurrentWrites = 8
)

// Relationship types
const (
	RelHasSkill      = "HAS_SKILL"
	RelWantsLocation = "WANTS_LOCATION"
	RelJoined        = "JOINED"
	RelKnows         = "KNOWS"
	RelLikes         = "LIKES"
	RelDislikes      = "DISLIKES"
	RelRequiresSkill = "REQUIRES_SKILL"
	RelLocatedIn     = "LOCATED_IN"
)

// Job listing constants
const (
	// LatestJobsLimit is the number of jobs returned by the "latest" listing
	LatestJobsLimit = 20
	// RecommendedJobsLimit caps the recommendation listing
	RecommendedJobsLimit = 20
)

// Job listing modes accepted by GET /users/:id/jobs
const (
	JobsModeLatest      = "latest"
	JobsModeLikes       = "likes"
	JobsModeRecommended = "recommended"
)

// Rating flags accepted by POST /users/:userId/jobs/:jobId
const (
	RatingLike    = "true"
	RatingDislike = "false"
)

// HTTP constants
const (
	// HeaderOneTimeToken carries the token that allows credentials in responses
	HeaderOneTimeToken = "x-auth-onetimetoken"
	// HeaderAPIKey carries the shared key for write routes
	HeaderAPIKey = "api_key"
	// HeaderRequestID is echoed on every response
	HeaderRequestID = "X-Request-ID"
)
