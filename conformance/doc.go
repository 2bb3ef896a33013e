// Package conformance checks that what an API encodes is what its
// document promises: for every payload type reachable from a route
// tree, it draws random samples, encodes them and validates the
// encodings against the schema the document would declare for that
// type.
//
//	v := conformance.New(
//	    conformance.WithSamples(200),
//	    conformance.WithSeed(1),
//	)
//	report, err := v.ValidateAll(api)
//	if err != nil {
//	    // a payload type could not be sampled or encoded
//	}
//	for _, section := range report.Failed() {
//	    fmt.Println(section.Type, section.Failure)
//	}
//
// Types with hand-written MarshalJSON methods, or whose valid values a
// reflective sampler cannot guess, get custom hooks:
//
//	conformance.WithGenerator(Email(""), func(r *rand.Rand) any {
//	    return Email(randomLocalPart(r) + "@example.com")
//	})
//	conformance.WithPatternMatcher(Email(""), isValidEmail)
//
// A report plugs into the standard test runner via Report.Subtests,
// producing one subtest per payload type.
package conformance
