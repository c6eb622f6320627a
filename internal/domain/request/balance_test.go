package request

import "testing"

func TestAdjustDeductsWithFloor(t *testing.T) {
	got := adjust(Balance{Days: 10, Hours: 8}, Deduction{Days: 3, Hours: 2}, actionApprove)
	if got.Days != 7 || got.Hours != 6 {
		t.Fatalf("expected 7 days / 6 hours, got %+v", got)
	}

	// over-deduction clamps at zero rather than going negative
	got = adjust(Balance{Days: 2, Hours: 1}, Deduction{Days: 5, Hours: 4}, actionApprove)
	if got.Days != 0 || got.Hours != 0 {
		t.Fatalf("expected clamp to zero, got %+v", got)
	}
}

func TestAdjustRestoreAddsNominalAmount(t *testing.T) {
	got := adjust(Balance{Days: 7, Hours: 6}, Deduction{Days: 3, Hours: 2}, actionRestore)
	if got.Days != 10 || got.Hours != 8 {
		t.Fatalf("expected 10 days / 8 hours, got %+v", got)
	}
}

func TestClampedDeductThenRestoreOvershoots(t *testing.T) {
	// 2 days available, 5 requested: approve clamps to 0, deny restores the
	// nominal 5 so the balance legitimately ends above where it started.
	d := Deduction{Days: 5}
	afterApprove := adjust(Balance{Days: 2}, d, actionApprove)
	if afterApprove.Days != 0 {
		t.Fatalf("expected 0 days after clamped approve, got %d", afterApprove.Days)
	}
	afterRestore := adjust(afterApprove, d, actionRestore)
	if afterRestore.Days != 5 {
		t.Fatalf("expected 5 days after restore, got %d", afterRestore.Days)
	}
}

func TestApproveThenRestoreRoundTrips(t *testing.T) {
	start := Balance{Days: 12, Hours: 9}
	d := Deduction{Days: 4, Hours: 3}
	if got := adjust(adjust(start, d, actionApprove), d, actionRestore); got != start {
		t.Fatalf("expected %+v after round trip, got %+v", start, got)
	}
}
