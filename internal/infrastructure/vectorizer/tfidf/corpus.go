package tfidf

import "errors"

var (
	errEmptyCorpus = errors.New("empty corpus")
	errNoTokens    = errors.New("no tokens found in corpus")
	errNoModel     = errors.New("no fitted model")
)

// FallbackCorpus is the canned document set used when the company directory
// yields nothing, so the pipeline is always trainable.
func FallbackCorpus() []string {
	return []string{
		"NeuralWorks artificial intelligence machine learning platform operating San Francisco USA",
		"CloudBase software cloud saas enterprise platform operating Seattle USA",
		"PayFlow fintech payments banking mobile wallet operating London GBR",
		"GeneCure biotech health medical diagnostics operating Boston USA",
		"ShopStream e-commerce marketplace retail consumer operating Berlin DEU",
		"VoltMotors electric vehicle automotive transportation operating Austin USA",
		"SunGrid solar renewable energy cleantech operating Madrid ESP",
		"StreamLine media entertainment video streaming operating Los Angeles USA",
		"ShieldNet cybersecurity network security infrastructure operating Tel Aviv ISR",
		"LearnLoop education edtech online learning operating Toronto CAN",
	}
}
