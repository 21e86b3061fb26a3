package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/device"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
)

const (
	// DefaultPrefix is the topic namespace shared with device firmware.
	DefaultPrefix = "plantmon"

	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second

	// pendingCap bounds writes buffered while the broker is unreachable.
	pendingCap = 64
	// waterlogCap bounds the per-device water-log mirror.
	waterlogCap = 200
)

// MQTT implements Store over an MQTT broker. Retained topics carry the
// latest-value documents; the water log is a plain append stream mirrored
// into a bounded in-memory window.
//
// Writes are optimistic: if the broker is unreachable the write is buffered
// (drop-oldest beyond pendingCap) and replayed on reconnect, and the method
// still returns nil. ClaimDevice is the exception and fails loudly.
type MQTT struct {
	client paho.Client
	prefix string
	log    zerolog.Logger

	mu        sync.Mutex
	pending   *ringBuffer
	waterlogs map[string][]WaterLogEntry
	cals      map[string]logic.CalibrationBounds
	users     map[string]*userState
}

type userState struct {
	devices  map[string]DeviceMeta
	profiles map[string]StoredProfile
	links    map[string]string // deviceID -> profileID
	invites  map[string]Invite
}

func newUserState() *userState {
	return &userState{
		devices:  make(map[string]DeviceMeta),
		profiles: make(map[string]StoredProfile),
		links:    make(map[string]string),
		invites:  make(map[string]Invite),
	}
}

// NewMQTT connects to the broker and subscribes to the user tree so that
// claimed-device, profile, link, and invite reads can be served from the
// local mirror.
func NewMQTT(broker, clientID string, log zerolog.Logger) (*MQTT, error) {
	s := &MQTT{
		prefix:    DefaultPrefix,
		log:       log,
		pending:   newRingBuffer(pendingCap),
		waterlogs: make(map[string][]WaterLogEntry),
		cals:      make(map[string]logic.CalibrationBounds),
		users:     make(map[string]*userState),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("store connection lost")
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("store: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	return s, nil
}

func (s *MQTT) onConnect(c paho.Client) {
	s.log.Info().Msg("store connected")

	userTree := s.prefix + "/users/#"
	if token := c.Subscribe(userTree, 1, s.handleUserMessage); token.Wait() && token.Error() != nil {
		s.log.Error().Err(token.Error()).Str("topic", userTree).Msg("user tree subscribe failed")
	}

	// Replay writes made while disconnected, oldest first.
	s.mu.Lock()
	replay := s.pending.drainAll()
	s.mu.Unlock()
	for _, w := range replay {
		token := c.Publish(w.topic, 1, w.retained, w.payload)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			s.log.Error().Str("topic", w.topic).Msg("replay publish failed")
		}
	}
	if len(replay) > 0 {
		s.log.Info().Int("count", len(replay)).Msg("replayed buffered writes")
	}
}

func (s *MQTT) deviceTopic(deviceID, sub string) string {
	return fmt.Sprintf("%s/devices/%s/%s", s.prefix, deviceID, sub)
}

func (s *MQTT) userTopic(userID, sub string) string {
	return fmt.Sprintf("%s/users/%s/%s", s.prefix, userID, sub)
}

// publish sends a store write, buffering on failure. Always returns nil —
// the optimistic-write policy keeps local state regardless of outcome.
func (s *MQTT) publish(topic string, payload []byte, retained bool) error {
	if s.client.IsConnected() {
		token := s.client.Publish(topic, 1, retained, payload)
		if token.WaitTimeout(publishTimeout) && token.Error() == nil {
			return nil
		}
		s.log.Warn().Str("topic", topic).AnErr("err", token.Error()).Msg("publish failed, buffering")
	}

	s.mu.Lock()
	dropped := s.pending.push(pendingWrite{topic: topic, payload: payload, retained: retained})
	s.mu.Unlock()
	if dropped {
		s.log.Warn().Int("capacity", pendingCap).Msg("write buffer full, dropping oldest")
	}
	return nil
}

// publishStrict is publish without the safety net, for flows that surface
// errors to the user.
func (s *MQTT) publishStrict(topic string, payload []byte, retained bool) error {
	if !s.client.IsConnected() {
		return ErrDisconnected
	}
	token := s.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("store: publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("store: publish %s: %w", topic, err)
	}
	return nil
}

// WatchDevice subscribes to the device's reading, control and log topics and
// dispatches decoded values to the watcher. Malformed payloads are logged
// and dropped; a clean empty payload clears the corresponding value.
func (s *MQTT) WatchDevice(deviceID string, w DeviceWatcher) error {
	subs := map[string]paho.MessageHandler{
		s.deviceTopic(deviceID, "reading"): func(_ paho.Client, m paho.Message) {
			r, err := DecodeReading(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "reading", err)
				return
			}
			if w.OnReading != nil {
				w.OnReading(r)
			}
		},
		s.deviceTopic(deviceID, "calibration"): func(_ paho.Client, m paho.Message) {
			if len(m.Payload()) == 0 {
				return
			}
			cal, err := DecodeCalibration(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "calibration", err)
				return
			}
			s.mu.Lock()
			s.cals[deviceID] = cal
			s.mu.Unlock()
			if w.OnCalibration != nil {
				w.OnCalibration(cal)
			}
		},
		s.deviceTopic(deviceID, "control/schedule"): func(_ paho.Client, m paho.Message) {
			if len(m.Payload()) == 0 {
				return
			}
			sched, err := DecodeSchedule(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "schedule", err)
				return
			}
			if w.OnSchedule != nil {
				w.OnSchedule(sched)
			}
		},
		s.deviceTopic(deviceID, "control/target"): func(_ paho.Client, m paho.Message) {
			if len(m.Payload()) == 0 {
				return
			}
			target, err := DecodeTarget(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "target", err)
				return
			}
			if w.OnTarget != nil {
				w.OnTarget(target)
			}
		},
		s.deviceTopic(deviceID, "alert"): func(_ paho.Client, m paho.Message) {
			if len(m.Payload()) == 0 {
				if w.OnAlert != nil {
					w.OnAlert(nil)
				}
				return
			}
			a, err := DecodeAlert(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "alert", err)
				return
			}
			if w.OnAlert != nil {
				w.OnAlert(a)
			}
		},
		s.deviceTopic(deviceID, "diagnostics"): func(_ paho.Client, m paho.Message) {
			if len(m.Payload()) == 0 {
				return
			}
			d, err := DecodeDiagnostics(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "diagnostics", err)
				return
			}
			if w.OnDiagnostics != nil {
				w.OnDiagnostics(d)
			}
		},
		s.deviceTopic(deviceID, "waterlog"): func(_ paho.Client, m paho.Message) {
			e, err := DecodeWaterLogEntry(m.Payload())
			if err != nil {
				s.logMalformed(deviceID, "waterlog", err)
				return
			}
			s.mu.Lock()
			wl := append(s.waterlogs[deviceID], e)
			if len(wl) > waterlogCap {
				wl = wl[len(wl)-waterlogCap:]
			}
			s.waterlogs[deviceID] = wl
			s.mu.Unlock()
			if w.OnWaterLog != nil {
				w.OnWaterLog(e)
			}
		},
	}

	for topic, handler := range subs {
		token := s.client.Subscribe(topic, 1, handler)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("store: subscribe timeout on %s", topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("store: subscribe %s: %w", topic, err)
		}
	}
	return nil
}

var malformedPayloads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "plantmon_malformed_payloads_total",
	Help: "Store payloads dropped because they failed decoding, per kind.",
}, []string{"kind"})

func (s *MQTT) logMalformed(deviceID, kind string, err error) {
	malformedPayloads.WithLabelValues(kind).Inc()
	s.log.Warn().Str("device", deviceID).Str("kind", kind).Err(err).Msg("dropping malformed payload")
}

func (s *MQTT) SetTargetMoisture(deviceID string, target int) error {
	payload, _ := json.Marshal(target)
	return s.publish(s.deviceTopic(deviceID, "control/target"), payload, true)
}

func (s *MQTT) SetSchedule(deviceID string, sched Schedule) error {
	payload, err := json.Marshal(sched.Clamped())
	if err != nil {
		return err
	}
	return s.publish(s.deviceTopic(deviceID, "control/schedule"), payload, true)
}

func (s *MQTT) MarkCalibration(deviceID string, mark CalibrationMark, raw int) error {
	s.mu.Lock()
	cal := s.cals[deviceID]
	if mark == MarkDry {
		cal.BoneDry = &raw
	} else {
		cal.Submerged = &raw
	}
	s.cals[deviceID] = cal
	s.mu.Unlock()

	payload, err := EncodeCalibration(cal)
	if err != nil {
		return err
	}
	return s.publish(s.deviceTopic(deviceID, "calibration"), payload, true)
}

func (s *MQTT) RequestPump(deviceID string) error {
	return s.publish(s.deviceTopic(deviceID, "control/pump"), []byte("true"), true)
}

func (s *MQTT) RequestReset(deviceID string) error {
	if err := s.publish(s.deviceTopic(deviceID, "control/reset"), []byte("true"), true); err != nil {
		return err
	}
	// Clear the reading snapshot so stale data doesn't masquerade as a
	// reconnected device.
	return s.publish(s.deviceTopic(deviceID, "reading"), nil, true)
}

func (s *MQTT) AckAlert(deviceID string, ackAt int64) error {
	payload, _ := json.Marshal(map[string]int64{"ackAt": ackAt})
	return s.publish(s.deviceTopic(deviceID, "alert/ack"), payload, true)
}

func (s *MQTT) LastWaterLog(deviceID string, n int) []WaterLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	wl := s.waterlogs[deviceID]
	if n <= 0 || n > len(wl) {
		n = len(wl)
	}
	out := make([]WaterLogEntry, n)
	copy(out, wl[len(wl)-n:])
	return out
}

func (s *MQTT) ClaimDevice(userID, deviceID string, meta DeviceMeta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.publishStrict(s.userTopic(userID, "devices/"+deviceID), payload, true)
}

func (s *MQTT) ReleaseDevice(userID, deviceID string) error {
	return s.publish(s.userTopic(userID, "devices/"+deviceID), nil, true)
}

func (s *MQTT) SetDeviceMeta(userID, deviceID string, meta DeviceMeta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.publish(s.userTopic(userID, "devices/"+deviceID), payload, true)
}

func (s *MQTT) Devices(userID string) ([]ClaimedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]ClaimedDevice, 0, len(u.devices))
	for id, meta := range u.devices {
		out = append(out, ClaimedDevice{ID: id, Meta: meta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MQTT) SaveProfile(userID string, p StoredProfile) error {
	payload, err := EncodeProfile(p.Profile)
	if err != nil {
		return err
	}
	return s.publish(s.userTopic(userID, "profiles/"+p.ID), payload, true)
}

func (s *MQTT) DeleteProfile(userID, profileID string) error {
	return s.publish(s.userTopic(userID, "profiles/"+profileID), nil, true)
}

func (s *MQTT) Profiles(userID string) ([]StoredProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]StoredProfile, 0, len(u.profiles))
	for _, p := range u.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MQTT) Profile(userID, profileID string) (StoredProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		if p, ok := u.profiles[profileID]; ok {
			return p, nil
		}
	}
	return StoredProfile{}, ErrNotFound
}

func (s *MQTT) LinkProfile(userID, deviceID, profileID string) error {
	return s.publish(s.userTopic(userID, "links/"+deviceID), []byte(`"`+profileID+`"`), true)
}

func (s *MQTT) UnlinkProfile(userID, deviceID string) error {
	return s.publish(s.userTopic(userID, "links/"+deviceID), nil, true)
}

func (s *MQTT) LinkedProfile(userID, deviceID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		if id, ok := u.links[deviceID]; ok {
			return id, true
		}
	}
	return "", false
}

func (s *MQTT) CreateInvite(userID string, inv Invite) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	return s.publish(s.userTopic(userID, "invites/"+device.SanitizeEmailKey(inv.Email)), payload, true)
}

// handleUserMessage mirrors the retained users tree into local maps so the
// synchronous read methods can answer without a round trip. Topic shape:
// {prefix}/users/{uid}/{kind}/{key}.
func (s *MQTT) handleUserMessage(_ paho.Client, m paho.Message) {
	rest := strings.TrimPrefix(m.Topic(), s.prefix+"/users/")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 {
		return
	}
	uid, kind, key := parts[0], parts[1], parts[2]

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		u = newUserState()
		s.users[uid] = u
	}

	cleared := len(m.Payload()) == 0
	switch kind {
	case "devices":
		if cleared {
			delete(u.devices, key)
			return
		}
		meta, err := DecodeDeviceMeta(m.Payload())
		if err != nil {
			malformedPayloads.WithLabelValues(kind).Inc()
			s.log.Warn().Str("user", uid).Err(err).Msg("dropping malformed device meta")
			return
		}
		u.devices[key] = meta
	case "profiles":
		if cleared {
			delete(u.profiles, key)
			return
		}
		p, err := DecodeProfile(m.Payload())
		if err != nil {
			malformedPayloads.WithLabelValues(kind).Inc()
			s.log.Warn().Str("user", uid).Err(err).Msg("dropping malformed profile")
			return
		}
		u.profiles[key] = StoredProfile{ID: key, Profile: p}
	case "links":
		if cleared {
			delete(u.links, key)
			return
		}
		var id string
		if err := json.Unmarshal(m.Payload(), &id); err != nil {
			return
		}
		u.links[key] = id
	case "invites":
		if cleared {
			delete(u.invites, key)
			return
		}
		var inv Invite
		if err := json.Unmarshal(m.Payload(), &inv); err != nil {
			return
		}
		u.invites[key] = inv
	}
}

// Close disconnects from the broker.
func (s *MQTT) Close() error {
	s.client.Disconnect(1000) // 1 second timeout
	return nil
}
