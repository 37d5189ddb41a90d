package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeam(maxSize int) Team {
	return Team{ID: 1, Name: "Null Pointers", EventID: 7, LeaderID: 100, MaxSize: maxSize, Status: TeamForming}
}

func TestTeam_JoinPaths(t *testing.T) {
	t.Run("join request waits for leader", func(t *testing.T) {
		team := newTeam(3)
		require.NoError(t, team.RequestToJoin(200))

		_, err := team.Respond(200, 200, true, baseTime)
		assert.ErrorIs(t, err, ErrNotAllowedToRespond)

		done, err := team.Respond(100, 200, true, baseTime)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, 2, team.AcceptedCount())
	})

	t.Run("invitation waits for invitee", func(t *testing.T) {
		team := newTeam(3)
		require.NoError(t, team.Invite(300))

		_, err := team.Respond(100, 300, true, baseTime)
		assert.ErrorIs(t, err, ErrNotAllowedToRespond)

		_, err = team.Respond(300, 300, false, baseTime)
		require.NoError(t, err)
		assert.Equal(t, MemberDeclined, team.Members[0].Status)

		_, err = team.Respond(300, 300, true, baseTime)
		assert.ErrorIs(t, err, ErrInviteAlreadyAnswered)
	})

	t.Run("join guards", func(t *testing.T) {
		team := newTeam(2)
		assert.ErrorIs(t, team.RequestToJoin(100), ErrTeamLeader)

		require.NoError(t, team.Invite(200))
		assert.ErrorIs(t, team.RequestToJoin(200), ErrAlreadyInTeam)

		_, err := team.Respond(200, 200, true, baseTime)
		require.NoError(t, err)
		assert.Equal(t, TeamComplete, team.Status)
		assert.ErrorIs(t, team.RequestToJoin(300), ErrTeamNotForming)

		team.Status = TeamForming
		assert.ErrorIs(t, team.RequestToJoin(300), ErrTeamFull)
	})

	t.Run("unknown entry", func(t *testing.T) {
		team := newTeam(3)
		_, err := team.Respond(100, 999, true, baseTime)
		assert.ErrorIs(t, err, ErrInviteNotFound)
	})
}

func TestTeam_CompletesAtMaxSize(t *testing.T) {
	team := newTeam(3)
	require.NoError(t, team.Invite(200))
	require.NoError(t, team.RequestToJoin(300))

	done, err := team.Respond(200, 200, true, baseTime)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, TeamForming, team.Status)

	done, err = team.Respond(100, 300, true, baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, TeamComplete, team.Status)
	assert.Equal(t, []uint{100, 200, 300}, team.AcceptedParticipantIDs())
	assert.Equal(t, []uint{100, 200, 300}, team.PendingFanOut())
}

func TestTeam_Leave(t *testing.T) {
	t.Run("member leave reverts completion", func(t *testing.T) {
		team := newTeam(2)
		require.NoError(t, team.Invite(200))
		_, err := team.Respond(200, 200, true, baseTime)
		require.NoError(t, err)

		disbanded, err := team.Leave(200)
		require.NoError(t, err)
		assert.False(t, disbanded)
		assert.Equal(t, TeamForming, team.Status)
		assert.Empty(t, team.Members)
	})

	t.Run("leader leave disbands", func(t *testing.T) {
		team := newTeam(2)
		disbanded, err := team.Leave(100)
		require.NoError(t, err)
		assert.True(t, disbanded)
		assert.Equal(t, TeamCancelled, team.Status)
	})

	t.Run("stranger cannot leave", func(t *testing.T) {
		team := newTeam(2)
		_, err := team.Leave(999)
		assert.ErrorIs(t, err, ErrNotTeamMember)
	})
}

func TestTeam_Outcomes(t *testing.T) {
	team := newTeam(3)
	team.Members = []TeamMember{
		{ParticipantID: 200, Status: MemberAccepted},
		{ParticipantID: 300, Status: MemberAccepted},
	}
	regID := uint(11)

	team.RecordOutcome(MemberOutcome{ParticipantID: 100, Status: OutcomeRegistered, RegistrationID: &regID})
	team.RecordOutcome(MemberOutcome{ParticipantID: 200, Status: OutcomeSkippedExisting})
	team.RecordOutcome(MemberOutcome{ParticipantID: 300, Status: OutcomeFailed, Reason: "event is full"})
	assert.Equal(t, []uint{300}, team.PendingFanOut())

	team.RecordOutcome(MemberOutcome{ParticipantID: 300, Status: OutcomeRegistered})
	assert.Empty(t, team.PendingFanOut())
	assert.Len(t, team.Outcomes, 3)
}
