package tokensale

const Version = "v0.1.0"
