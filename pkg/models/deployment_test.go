package models

import "testing"

func TestScheduleValidateExactlyOneSource(t *testing.T) {
	cases := []struct {
		name    string
		sched   Schedule
		wantErr bool
	}{
		{"cron only", Schedule{CronExpression: "*/5 * * * *", Enabled: true}, false},
		{"interval only", Schedule{IntervalSeconds: 30, Enabled: true}, false},
		{"both set", Schedule{CronExpression: "* * * * *", IntervalSeconds: 30, Enabled: true}, true},
		{"neither set", Schedule{Enabled: true}, true},
		{"negative interval", Schedule{IntervalSeconds: -5, Enabled: true}, true},
		{"disabled empty", Schedule{Enabled: false}, false},
		{"disabled with both", Schedule{CronExpression: "* * * * *", IntervalSeconds: 30, Enabled: false}, false},
	}

	for _, tc := range cases {
		err := tc.sched.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestDeploymentEligible(t *testing.T) {
	d := &Deployment{
		ID:       "dep-1",
		DesignID: "design-1",
		Status:   DeploymentActive,
		Schedule: Schedule{IntervalSeconds: 60, Enabled: true},
	}
	if !d.Eligible() {
		t.Error("active+enabled deployment should be eligible")
	}

	d.Status = DeploymentPaused
	if d.Eligible() {
		t.Error("paused deployment should not be eligible")
	}

	d.Status = DeploymentActive
	d.Schedule.Enabled = false
	if d.Eligible() {
		t.Error("disabled schedule should not be eligible")
	}
}

func TestDeploymentValidate(t *testing.T) {
	d := &Deployment{ID: "dep-1", DesignID: "design-1", Status: DeploymentActive}
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.DesignID = ""
	if err := d.Validate(); err == nil {
		t.Error("expected error for missing design_id")
	}

	d.DesignID = "design-1"
	d.Status = "suspended"
	if err := d.Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestExecutionStatusTerminal(t *testing.T) {
	if ExecutionRunning.Terminal() {
		t.Error("running should not be terminal")
	}
	if !ExecutionSucceeded.Terminal() || !ExecutionFailed.Terminal() {
		t.Error("succeeded and failed should be terminal")
	}
}
