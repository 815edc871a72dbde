package qoicore

// FieldDelta computes the signed delta between cur and prev within a
// channel of the given bit width, wrapping as the channel itself would
// (e.g. 8-bit RGB channels wrap mod 256; RGB565's green field wraps mod
// 64). The result is the minimal-magnitude representative in
// (-2^(bits-1), 2^(bits-1)].
func FieldDelta(cur, prev uint32, bits uint) int {
	mod := int32(1) << bits
	d := int32(cur) - int32(prev)
	d = ((d % mod) + mod) % mod
	if d >= mod/2 {
		d -= mod
	}
	return int(d)
}

// FieldApply adds delta back to prev within a channel of the given bit
// width, wrapping within that field. Operating per-field (rather than
// adding delta directly into a packed multi-field integer) keeps a
// wraparound in one channel from corrupting its neighbors — e.g. RGB565's
// packed layout has no per-channel carry bits to absorb that overflow.
func FieldApply(prev uint32, delta int, bits uint) uint32 {
	mod := int32(1) << bits
	v := (int32(prev) + int32(delta)) % mod
	if v < 0 {
		v += mod
	}
	return uint32(v)
}

// inRange reports whether v is within [lo, hi] inclusive.
func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }

// DiffOp8 attempts QOI_OP_DIFF for three 8-bit channels: each delta must
// be in [-2, 1]. Deltas are plain differences cur-prev of the 8-bit values,
// without mod-256 wraparound (so 255 after 0 is not a DIFF candidate).
// Returns the three unbiased deltas (callers add 2 for the 0..3 storage
// range) and ok=false if any channel is out of range.
func DiffOp8(curR, curG, curB, prevR, prevG, prevB uint8) (dr, dg, db int, ok bool) {
	dr = int(curR) - int(prevR)
	dg = int(curG) - int(prevG)
	db = int(curB) - int(prevB)
	if inRange(dr, -2, 1) && inRange(dg, -2, 1) && inRange(db, -2, 1) {
		return dr, dg, db, true
	}
	return 0, 0, 0, false
}

// LumaOp8 attempts QOI_OP_LUMA for three 8-bit channels: green delta in
// [-32,31], red/blue deltas relative to the green delta in [-8,7]. Like
// DiffOp8, deltas are plain differences without mod-256 wraparound.
func LumaOp8(curR, curG, curB, prevR, prevG, prevB uint8) (dg, drg, dbg int, ok bool) {
	dg = int(curG) - int(prevG)
	if !inRange(dg, -32, 31) {
		return 0, 0, 0, false
	}
	dr := int(curR) - int(prevR)
	db := int(curB) - int(prevB)
	drg = dr - dg
	dbg = db - dg
	if inRange(drg, -8, 7) && inRange(dbg, -8, 7) {
		return dg, drg, dbg, true
	}
	return 0, 0, 0, false
}

// DiffOp565 is DiffOp8's 16bpp-mode equivalent, operating on the 5/6/5
// field widths directly rather than 8-bit channels, per Design Note (b).
// Unlike DiffOp8, its deltas wrap within each field's width (FieldDelta).
func DiffOp565(curR, curG, curB, prevR, prevG, prevB uint16) (dr, dg, db int, ok bool) {
	dr = FieldDelta(uint32(curR), uint32(prevR), 5)
	dg = FieldDelta(uint32(curG), uint32(prevG), 6)
	db = FieldDelta(uint32(curB), uint32(prevB), 5)
	if inRange(dr, -2, 1) && inRange(dg, -2, 1) && inRange(db, -2, 1) {
		return dr, dg, db, true
	}
	return 0, 0, 0, false
}

// LumaOp565 is LumaOp8's 16bpp-mode equivalent.
func LumaOp565(curR, curG, curB, prevR, prevG, prevB uint16) (dg, drg, dbg int, ok bool) {
	dg = FieldDelta(uint32(curG), uint32(prevG), 6)
	if !inRange(dg, -32, 31) {
		return 0, 0, 0, false
	}
	dr := FieldDelta(uint32(curR), uint32(prevR), 5)
	db := FieldDelta(uint32(curB), uint32(prevB), 5)
	drg = dr - dg
	dbg = db - dg
	if inRange(drg, -8, 7) && inRange(dbg, -8, 7) {
		return dg, drg, dbg, true
	}
	return 0, 0, 0, false
}
