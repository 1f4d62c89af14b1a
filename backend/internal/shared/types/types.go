package types

// Vec3 represents a position or vector in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is an orientation quaternion (w + xi + yj + zk).
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// InputState is the per-tick key state sent by the client.
type InputState struct {
	Sequence uint64 `json:"sequence"`
	Forward  bool   `json:"forward"`
	Backward bool   `json:"backward"`
	Left     bool   `json:"left"`
	Right    bool   `json:"right"`
	Drift    bool   `json:"drift"`
}

// WheelState is the replicated state of one suspension corner.
type WheelState struct {
	Index         int     `json:"index"`
	GroundPoint   Vec3    `json:"ground_point"`
	GroundNormal  Vec3    `json:"ground_normal"`
	Compression   float64 `json:"compression"`
	CurrentHeight float64 `json:"current_height"`
}

// VehicleState is the authoritative replicated state for the car.
type VehicleState struct {
	Position         Vec3         `json:"position"`
	Direction        Vec3         `json:"direction"`
	Orientation      Quat         `json:"orientation"`
	Heading          float64      `json:"heading"`
	Pitch            float64      `json:"pitch"`
	Roll             float64      `json:"roll"`
	Velocity         float64      `json:"velocity"`
	LateralVelocity  float64      `json:"lateral_velocity"`
	YawRate          float64      `json:"yaw_rate"`
	DriftFactor      float64      `json:"drift_factor"`
	SlipAngle        float64      `json:"slip_angle"`
	SteeringAngle    float64      `json:"steering_angle"`
	VerticalVelocity float64      `json:"vertical_velocity"`
	IsGrounded       bool         `json:"is_grounded"`
	AirborneTime     float64      `json:"airborne_time"`
	OffTrack         bool         `json:"off_track"`
	Wheels           []WheelState `json:"wheels"`
}

// TrailEvent is either a new ribbon point or a ribbon break.
type TrailEvent struct {
	Type      string  `json:"type"` // point|break
	Wheel     int     `json:"wheel,omitempty"`
	Position  Vec3    `json:"position"`
	Intensity float64 `json:"intensity,omitempty"`
	SimMS     int64   `json:"sim_ms"`
}

// SimEvent tracks state changes worth UI/audio feedback.
type SimEvent struct {
	Type  string  `json:"type"` // collision|boundary|takeoff|landing|hard_landing|trail_break
	Value float64 `json:"value,omitempty"`
	SimMS int64   `json:"sim_ms"`
}

// SessionState is replicated to the connected renderer.
type SessionState struct {
	SessionID string       `json:"session_id"`
	Tick      uint64       `json:"tick"`
	SimMS     int64        `json:"sim_ms"`
	Vehicle   VehicleState `json:"vehicle"`
	Trail     []TrailEvent `json:"trail"`
	Events    []SimEvent   `json:"events"`
}

// Obstacle describes a decoration the renderer should build.
type Obstacle struct {
	Kind   string  `json:"kind"` // tree|rock|gate
	Center Vec3    `json:"center"`
	Size   Vec3    `json:"size,omitempty"`
	Radius float64 `json:"radius,omitempty"`
}

// MapDescription is everything the renderer needs to mesh the world.
type MapDescription struct {
	Seed           int64      `json:"seed"`
	Radius         float64    `json:"radius"`
	TrackHalfWidth float64    `json:"track_half_width"`
	Track          []Vec3     `json:"track"`
	Obstacles      []Obstacle `json:"obstacles"`
	Start          Vec3       `json:"start"`
	StartDirection Vec3       `json:"start_direction"`
}

// ClientEnvelope is sent from client to server.
type ClientEnvelope struct {
	Type  string      `json:"type"` // hello|input|ping|reset
	Input *InputState `json:"input,omitempty"`
}

// ServerEnvelope is sent from server to client.
type ServerEnvelope struct {
	Type     string          `json:"type"` // welcome|state|pong|error
	Tick     uint64          `json:"tick,omitempty"`
	State    *SessionState   `json:"state,omitempty"`
	Map      *MapDescription `json:"map,omitempty"`
	ServerMS int64           `json:"server_ms,omitempty"`
	Message  string          `json:"message,omitempty"`
	AckSeq   uint64          `json:"ack_seq,omitempty"`
}

// TelemetryEvent represents a gameplay/platform event.
type TelemetryEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	SessionID string                 `json:"session_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}
