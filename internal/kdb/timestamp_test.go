// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

import "testing"

func TestTimestampRoundTrip(t *testing.T) {
	cases := []Timestamp{
		{Year: 2024, Month: 1, Day: 1, Hour: 0, Minute: 0, Second: 0},
		{Year: 1999, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59},
		NeverExpires,
	}
	for _, ts := range cases {
		w := NewWriter()
		w.WriteTimestamp(ts)
		r := NewReader(w.Bytes())
		got, err := r.ReadTimestamp()
		if err != nil {
			t.Fatalf("ReadTimestamp: %v", err)
		}
		if got != ts {
			t.Fatalf("round trip %+v -> %+v", ts, got)
		}
	}
}

func TestNeverExpiresSentinel(t *testing.T) {
	if !NeverExpires.IsNeverExpires() {
		t.Fatal("NeverExpires.IsNeverExpires() = false")
	}
	other := Timestamp{Year: 2024}
	if other.IsNeverExpires() {
		t.Fatal("arbitrary timestamp reported as never-expires")
	}
}
