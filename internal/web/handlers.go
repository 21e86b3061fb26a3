package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/auth"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/device"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/ratelimit"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/store"
)

func (s *Server) user(r *http.Request) auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}

// deviceID extracts and validates the device id from the URL. Writes a 400
// and returns ok=false on bad input.
func (s *Server) deviceID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := device.ParseID(chi.URLParam(r, "deviceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return "", false
	}
	return id, true
}

// owns reports whether the user has claimed the device.
func (s *Server) owns(userID, deviceID string) bool {
	devs, err := s.store.Devices(userID)
	if err != nil {
		return false
	}
	for _, d := range devs {
		if d.ID == deviceID {
			return true
		}
	}
	return false
}

type deviceListEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Room   string `json:"room"`
	Status string `json:"status,omitempty"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	devs, err := s.store.Devices(u.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "device list unavailable")
		return
	}

	nowSec := s.now().Unix()
	out := make([]deviceListEntry, 0, len(devs))
	for _, d := range devs {
		entry := deviceListEntry{ID: d.ID, Name: d.Meta.Name, Room: d.Meta.Room}
		if t, ok := s.mon.Tracker(d.ID); ok {
			entry.Status = string(t.Snapshot(nowSec).Status)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

func (s *Server) handleClaimDevice(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)

	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Room string `json:"room"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := device.ParseID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	// Claims are the one write that surfaces store errors — a claim that
	// didn't stick must not look successful.
	if err := s.store.ClaimDevice(u.UserID, id, store.DeviceMeta{Name: req.Name, Room: req.Room}); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if _, err := s.mon.Track(id); err != nil {
		s.log.Error().Str("device", id).Err(err).Msg("claimed but tracking failed")
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleReleaseDevice(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if err := s.store.ReleaseDevice(u.UserID, id); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("release write failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	tracker, err := s.mon.Track(id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "store watch failed")
		return
	}
	snap := tracker.Snapshot(s.now().Unix())

	var profile *logic.Profile
	if pid, ok := s.store.LinkedProfile(u.UserID, id); ok {
		if p, err := s.store.Profile(u.UserID, pid); err == nil {
			profile = &p.Profile
		}
	}

	writeJSON(w, http.StatusOK, buildDeviceJSON(snap, profile))
}

func (s *Server) handleWaterLog(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be 1-200")
			return
		}
		limit = n
	}

	entries := s.store.LastWaterLog(id, limit)
	if entries == nil {
		entries = []store.WaterLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// runGated executes a control action through its cooldown gate, answering
// 429 with a retry hint when the gate is closed. Store write failures are
// logged but still answered 202 — control writes are optimistic.
func (s *Server) runGated(w http.ResponseWriter, g *ratelimit.Gate, action string, fn func() error) {
	err := g.Execute(fn)
	if errors.Is(err, ratelimit.ErrCoolingDown) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":          "cooling down",
			"retry_after_ms": g.Remaining().Milliseconds(),
		})
		return
	}
	if err != nil {
		s.log.Warn().Str("action", action).Err(err).Msg("control write failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}

func (s *Server) handlePump(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}
	g := s.gate("pump|"+id, s.cfg.PumpCooldown)
	s.runGated(w, g, "pump", func() error { return s.mon.RequestPump(id) })
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}
	g := s.gate("reset|"+id, s.cfg.ResetCooldown)
	s.runGated(w, g, "reset", func() error { return s.mon.RequestReset(id) })
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	var req struct {
		Mark string `json:"mark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		(req.Mark != string(store.MarkDry) && req.Mark != string(store.MarkWet)) {
		writeError(w, http.StatusBadRequest, `mark must be "dry" or "wet"`)
		return
	}

	tracker, err := s.mon.Track(id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "store watch failed")
		return
	}
	snap := tracker.Snapshot(s.now().Unix())
	if snap.Reading == nil || snap.Reading.SoilRaw == nil {
		writeError(w, http.StatusConflict, "no current soil reading to mark")
		return
	}
	raw := *snap.Reading.SoilRaw

	if err := s.store.MarkCalibration(id, store.CalibrationMark(req.Mark), raw); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("calibration write failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"mark": req.Mark, "raw": raw})
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	var req struct {
		Target int `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Target < 0 || req.Target > 4095 {
		writeError(w, http.StatusBadRequest, "target must be 0-4095")
		return
	}

	if err := s.store.SetTargetMoisture(id, req.Target); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("target write failed, proceeding optimistically")
	}
	if t, ok := s.mon.Tracker(id); ok {
		t.SetTarget(req.Target)
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"target": req.Target})
}

func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	var sched store.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clamped := sched.Clamped()

	if err := s.store.SetSchedule(id, clamped); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("schedule write failed, proceeding optimistically")
	}
	if t, ok := s.mon.Tracker(id); ok {
		t.SetSchedule(clamped)
	}
	writeJSON(w, http.StatusAccepted, clamped)
}

func (s *Server) handleSetMeta(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	var meta store.DeviceMeta
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetDeviceMeta(u.UserID, id, meta); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("meta write failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusAccepted, meta)
}

func (s *Server) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	ackAt := s.now().Unix()
	if err := s.store.AckAlert(id, ackAt); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("alert ack failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusAccepted, map[string]int64{"ack_at": ackAt})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	profiles, err := s.store.Profiles(u.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile list unavailable")
		return
	}
	out := make([]ProfileJSON, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileJSON(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func validProfile(p ProfileJSON) string {
	if p.Name == "" {
		return "name is required"
	}
	switch logic.LightPreference(p.LightPreference) {
	case "", logic.LightBright, logic.LightDim, logic.LightAny:
	default:
		return `light_preference must be "bright", "dim", or "any"`
	}
	return ""
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)

	var req ProfileJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validProfile(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p := store.StoredProfile{ID: newID(), Profile: req.domain()}
	p.CreatedAt = s.now().Unix()

	if err := s.store.SaveProfile(u.UserID, p); err != nil {
		s.log.Warn().Str("profile", p.ID).Err(err).Msg("profile write failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusCreated, profileJSON(p))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	pid := chi.URLParam(r, "profileID")

	existing, err := s.store.Profile(u.UserID, pid)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}

	var req ProfileJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validProfile(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p := store.StoredProfile{ID: pid, Profile: req.domain()}
	p.CreatedAt = existing.CreatedAt

	if err := s.store.SaveProfile(u.UserID, p); err != nil {
		s.log.Warn().Str("profile", pid).Err(err).Msg("profile write failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusOK, profileJSON(p))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	pid := chi.URLParam(r, "profileID")
	if err := s.store.DeleteProfile(u.UserID, pid); err != nil {
		s.log.Warn().Str("profile", pid).Err(err).Msg("profile delete failed, proceeding optimistically")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLinkProfile(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if !s.owns(u.UserID, id) {
		writeError(w, http.StatusNotFound, "device not claimed")
		return
	}

	var req struct {
		ProfileID string `json:"profile_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProfileID == "" {
		writeError(w, http.StatusBadRequest, "profile_id is required")
		return
	}
	if _, err := s.store.Profile(u.UserID, req.ProfileID); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	if err := s.store.LinkProfile(u.UserID, id, req.ProfileID); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("link write failed, proceeding optimistically")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlinkProfile(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	id, ok := s.deviceID(w, r)
	if !ok {
		return
	}
	if err := s.store.UnlinkProfile(u.UserID, id); err != nil {
		s.log.Warn().Str("device", id).Err(err).Msg("unlink write failed, proceeding optimistically")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !device.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	inv := store.Invite{Email: req.Email, InvitedBy: u.UserID, CreatedAt: s.now().Unix()}
	g := s.gate("invite|"+u.UserID, s.cfg.InviteCooldown)

	err := g.Execute(func() error { return s.store.CreateInvite(u.UserID, inv) })
	if errors.Is(err, ratelimit.ErrCoolingDown) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":          "cooling down",
			"retry_after_ms": g.Remaining().Milliseconds(),
		})
		return
	}
	if err != nil {
		s.log.Warn().Str("email", req.Email).Err(err).Msg("invite write failed, proceeding optimistically")
	}
	writeJSON(w, http.StatusCreated, map[string]string{"email": req.Email})
}

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
