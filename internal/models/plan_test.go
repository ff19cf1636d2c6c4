package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFreeTier(t *testing.T) {
	assert.True(t, (&SubscriptionPlan{Name: "free", Price: 0}).IsFreeTier())
	assert.True(t, (&SubscriptionPlan{Name: "starter", Price: 0}).IsFreeTier())
	assert.False(t, (&SubscriptionPlan{Name: "pro", Price: 19}).IsFreeTier())
}

func TestLimitFor(t *testing.T) {
	plan := &SubscriptionPlan{Limits: []byte(`{"projects": 5, "seats": 2}`)}

	limit := plan.LimitFor(LimitProjects)
	if assert.NotNil(t, limit) {
		assert.Equal(t, 5, *limit)
	}
	assert.Nil(t, plan.LimitFor("storage"))

	// No limits document and malformed documents both mean "no cap here".
	assert.Nil(t, (&SubscriptionPlan{}).LimitFor(LimitProjects))
	assert.Nil(t, (&SubscriptionPlan{Limits: []byte(`not json`)}).LimitFor(LimitProjects))
}

func TestNextPhase(t *testing.T) {
	assert.Equal(t, PhaseDefine, NextPhase(PhaseEmpathize))
	assert.Equal(t, PhaseTest, NextPhase(PhasePrototype))
	assert.Equal(t, PhaseTest, NextPhase(PhaseTest))
}

func TestValidPhase(t *testing.T) {
	for _, phase := range JourneyPhases {
		assert.True(t, ValidPhase(phase))
	}
	assert.False(t, ValidPhase("brainstorm"))
	assert.False(t, ValidPhase(""))
}
