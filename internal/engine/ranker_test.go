package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/models"
)

func intPtr(v int) *int { return &v }

func teacher(id, code string, subjects ...string) *models.Teacher {
	return &models.Teacher{
		ID:               id,
		EmploymentCode:   code,
		FullName:         "Teacher " + code,
		Subjects:         subjects,
		MaxWeeklyMinutes: 1080,
		Status:           models.TeacherActive,
	}
}

func vacantSlot() *models.TimeSlot {
	return slot("vacant", models.Monday, 540, 640, "Room101", "")
}

func TestRankSubjectMatchOutranksLoad(t *testing.T) {
	in := RankInput{
		Slot: vacantSlot(),
		Teachers: []*models.Teacher{
			teacher("t1", "EMP-001", "MATH"),
			teacher("t2", "EMP-002", "BIO"),
		},
		AssignedMinutes: map[string]int{"t1": 700, "t2": 0},
	}
	candidates := Rank(in, DefaultConfig())

	require.Len(t, candidates, 2)
	// Qualified but loaded beats unqualified and free: 0.5+0.2+0.2 > 0.3+0.2.
	assert.Equal(t, "t1", candidates[0].TeacherID)
	assert.InDelta(t, 0.9, candidates[0].MatchScore, 1e-9)
	assert.InDelta(t, 0.5, candidates[1].MatchScore, 1e-9)
}

func TestRankLoadHeadroomTiers(t *testing.T) {
	in := RankInput{
		Slot: vacantSlot(),
		Teachers: []*models.Teacher{
			teacher("light", "EMP-001", "MATH"),
			teacher("moderate", "EMP-002", "MATH"),
			teacher("heavy", "EMP-003", "MATH"),
		},
		AssignedMinutes: map[string]int{
			"light":    100, // < 50% of 1080
			"moderate": 700, // < 80%
			"heavy":    900, // >= 80%
		},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 3)

	scores := map[string]float64{}
	for _, c := range candidates {
		scores[c.TeacherID] = c.MatchScore
	}
	assert.InDelta(t, 1.0, scores["light"], 1e-9)
	assert.InDelta(t, 0.9, scores["moderate"], 1e-9)
	assert.InDelta(t, 0.8, scores["heavy"], 1e-9)
}

func TestRankExcludesInactiveTeachers(t *testing.T) {
	onLeave := teacher("t1", "EMP-001", "MATH")
	onLeave.Status = models.TeacherOnLeave
	resigned := teacher("t2", "EMP-002", "MATH")
	resigned.Status = models.TeacherResigned

	in := RankInput{
		Slot:     vacantSlot(),
		Teachers: []*models.Teacher{onLeave, resigned, teacher("t3", "EMP-003", "MATH")},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 1)
	assert.Equal(t, "t3", candidates[0].TeacherID)
}

func TestRankExcludesOverCapCandidates(t *testing.T) {
	// 1000 assigned + 100 slot duration > 1080: silent exclusion.
	in := RankInput{
		Slot:            vacantSlot(), // 100 minutes
		Teachers:        []*models.Teacher{teacher("t1", "EMP-001", "MATH")},
		AssignedMinutes: map[string]int{"t1": 1000},
	}
	assert.Empty(t, Rank(in, DefaultConfig()))
}

func TestRankAllowsLandingExactlyOnCap(t *testing.T) {
	in := RankInput{
		Slot:            vacantSlot(), // 100 minutes
		Teachers:        []*models.Teacher{teacher("t1", "EMP-001", "MATH")},
		AssignedMinutes: map[string]int{"t1": 980},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 1)
	assert.Equal(t, 100, candidates[0].AvailableMinutes)
}

func TestRankCapInvariantHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	teachers := make([]*models.Teacher, 0, 30)
	assigned := map[string]int{}
	for i := 0; i < 30; i++ {
		id := string(rune('a'+i%26)) + "-t"
		tc := teacher(id, "EMP-"+id, "MATH")
		teachers = append(teachers, tc)
		assigned[id] = rng.Intn(1200)
	}
	in := RankInput{Slot: vacantSlot(), Teachers: teachers, AssignedMinutes: assigned}

	for _, c := range Rank(in, DefaultConfig()) {
		assert.LessOrEqual(t, assigned[c.TeacherID]+in.Slot.Duration(), 1080)
	}
}

func TestRankExcludesUnavailableTeachers(t *testing.T) {
	wholeDay := &models.TeacherAvailability{TeacherID: "t1"}
	partial := &models.TeacherAvailability{TeacherID: "t2", StartMinute: intPtr(600), EndMinute: intPtr(660)}
	clear := &models.TeacherAvailability{TeacherID: "t3", StartMinute: intPtr(660), EndMinute: intPtr(720)}

	in := RankInput{
		Slot: vacantSlot(), // 09:00-10:40
		Teachers: []*models.Teacher{
			teacher("t1", "EMP-001", "MATH"),
			teacher("t2", "EMP-002", "MATH"),
			teacher("t3", "EMP-003", "MATH"),
		},
		Unavailability: map[string][]*models.TeacherAvailability{
			"t1": {wholeDay},
			"t2": {partial}, // 10:00-11:00 overlaps the slot
			"t3": {clear},   // 11:00-12:00 is after the slot ends
		},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 1)
	assert.Equal(t, "t3", candidates[0].TeacherID)
}

func TestRankExcludesAbsentTeacherItself(t *testing.T) {
	s := vacantSlot()
	s.TeacherID = strPtr("t1")
	in := RankInput{
		Slot:     s,
		Teachers: []*models.Teacher{teacher("t1", "EMP-001", "MATH"), teacher("t2", "EMP-002", "MATH")},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 1)
	assert.Equal(t, "t2", candidates[0].TeacherID)
}

func TestRankTieBreakByRemainingMinutes(t *testing.T) {
	in := RankInput{
		Slot: vacantSlot(),
		Teachers: []*models.Teacher{
			teacher("busy", "EMP-001", "MATH"),
			teacher("free", "EMP-002", "MATH"),
		},
		// Both land in the same headroom tier, so scores are equal and the
		// less-loaded teacher must win.
		AssignedMinutes: map[string]int{"busy": 400, "free": 200},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 2)
	assert.Equal(t, candidates[0].MatchScore, candidates[1].MatchScore)
	assert.Equal(t, "free", candidates[0].TeacherID)
}

func TestRankTieBreakByEmploymentCode(t *testing.T) {
	in := RankInput{
		Slot: vacantSlot(),
		Teachers: []*models.Teacher{
			teacher("t-z", "EMP-900", "MATH"),
			teacher("t-a", "EMP-100", "MATH"),
			teacher("t-m", "EMP-500", "MATH"),
		},
		AssignedMinutes: map[string]int{"t-z": 300, "t-a": 300, "t-m": 300},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 3)
	assert.Equal(t, "EMP-100", candidates[0].EmploymentCode)
	assert.Equal(t, "EMP-500", candidates[1].EmploymentCode)
	assert.Equal(t, "EMP-900", candidates[2].EmploymentCode)
}

func TestRankDeterministicUnderShuffle(t *testing.T) {
	teachers := []*models.Teacher{
		teacher("t1", "EMP-004", "MATH"),
		teacher("t2", "EMP-002", "MATH"),
		teacher("t3", "EMP-003", "BIO"),
		teacher("t4", "EMP-001", "MATH"),
		teacher("t5", "EMP-005", "BIO"),
	}
	assigned := map[string]int{"t1": 300, "t2": 300, "t3": 100, "t4": 300, "t5": 900}
	baseline := Rank(RankInput{Slot: vacantSlot(), Teachers: teachers, AssignedMinutes: assigned}, DefaultConfig())

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 20; i++ {
		shuffled := make([]*models.Teacher, len(teachers))
		copy(shuffled, teachers)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Rank(RankInput{Slot: vacantSlot(), Teachers: shuffled, AssignedMinutes: assigned}, DefaultConfig())
		require.Equal(t, baseline, got)
	}
}

func TestRankHODReserve(t *testing.T) {
	hod := teacher("t1", "EMP-001", "MATH")
	hod.HeadOfDepartment = true

	// 880 assigned + 100 slot + 120 reserved departmental minutes > 1080.
	in := RankInput{
		Slot:            vacantSlot(),
		Teachers:        []*models.Teacher{hod},
		AssignedMinutes: map[string]int{"t1": 880},
	}
	assert.Empty(t, Rank(in, DefaultConfig()))

	in.AssignedMinutes["t1"] = 860
	assert.Len(t, Rank(in, DefaultConfig()), 1)
}

func TestRankReasonExplainsScore(t *testing.T) {
	in := RankInput{
		Slot:     vacantSlot(),
		Teachers: []*models.Teacher{teacher("t1", "EMP-001", "MATH")},
	}
	candidates := Rank(in, DefaultConfig())
	require.Len(t, candidates, 1)
	assert.Contains(t, candidates[0].Reason, "qualified for MATH")
	assert.Contains(t, candidates[0].Reason, "light weekly load")
	assert.Contains(t, candidates[0].Reason, "available at the requested time")
}

func TestTopCapsCandidateList(t *testing.T) {
	candidates := []models.SubstitutionCandidate{{TeacherID: "a"}, {TeacherID: "b"}, {TeacherID: "c"}}
	assert.Len(t, Top(candidates, 2), 2)
	assert.Len(t, Top(candidates, 0), 3)
	assert.Len(t, Top(candidates, 10), 3)
}
