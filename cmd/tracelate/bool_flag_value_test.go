package tracelate

import "testing"

func TestParseBoolChoice(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedValue bool
		expectedOK    bool
	}{
		{name: "EmptyMeansTrue", input: "", expectedValue: true, expectedOK: true},
		{name: "True", input: "true", expectedValue: true, expectedOK: true},
		{name: "YesUppercase", input: "YES", expectedValue: true, expectedOK: true},
		{name: "OnWithWhitespace", input: "  on ", expectedValue: true, expectedOK: true},
		{name: "False", input: "false", expectedValue: false, expectedOK: true},
		{name: "No", input: "no", expectedValue: false, expectedOK: true},
		{name: "Zero", input: "0", expectedValue: false, expectedOK: true},
		{name: "Garbage", input: "maybe", expectedValue: false, expectedOK: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			value, ok := parseBoolChoice(testCase.input)
			if ok != testCase.expectedOK {
				t.Fatalf("parseBoolChoice(%q) ok = %v, expected %v", testCase.input, ok, testCase.expectedOK)
			}
			if value != testCase.expectedValue {
				t.Fatalf("parseBoolChoice(%q) = %v, expected %v", testCase.input, value, testCase.expectedValue)
			}
		})
	}
}

func TestBoolChoiceValueSetRejectsUnknownSpelling(t *testing.T) {
	var target bool
	flagValue := newBoolChoiceValue(&target)
	if err := flagValue.Set("definitely"); err == nil {
		t.Fatal("expected an error for an unknown boolean spelling")
	}
	if err := flagValue.Set("yes"); err != nil {
		t.Fatalf("Set(yes) returned error: %v", err)
	}
	if !target {
		t.Fatal("expected target to be true after Set(yes)")
	}
}
