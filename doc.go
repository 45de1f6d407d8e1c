// Package mlbridge is a toolkit for calling machine-learning models from
// PHP (or any host language) without embedding a Python runtime.
//
// Each capability ships as an independent binary under cmd/ that follows
// one calling convention: JSON in via an argument or stdin, a single JSON
// document out on stdout, and {"error": ..., "type": ...} with a non-zero
// exit on failure. Logs always go to stderr so stdout stays parseable.
//
// # Integration styles
//
// Three ways to reach the models, in increasing order of throughput:
//
//   - Shell execution: run a binary per request (cmd/predict, cmd/process,
//     cmd/classify, cmd/detect, cmd/forecast).
//   - HTTP: cmd/server keeps the model resident and serves /predict and
//     /predict/batch (the Flask-style API).
//   - Queue: cmd/worker consumes tasks from a Redis list, so producers
//     enqueue and poll for results asynchronously.
//
// # Quick start
//
// Train the sentiment model and query it:
//
//	go run ./cmd/train reviews.csv
//	go run ./cmd/predict '{"text": "This product is great!"}'
//
// Or keep it resident:
//
//	go run ./cmd/server
//	curl -X POST localhost:5000/predict -d '{"text": "This product is great!"}'
//
// # Packages
//
//   - sentiment: the TF-IDF + classifier pipeline, lexicon analyzer, and
//     multi-model comparison training
//   - sklearn/...: the estimators (MultinomialNB, LogisticRegression,
//     LinearSVC) and model selection helpers
//   - preprocessing: the TF-IDF vectorizer
//   - forecast: seasonal trend regression for monthly revenue series
//   - vision: ONNX image classification and pigo face detection
//   - queue: the Redis task queue and worker loop
//   - server: the HTTP API
package mlbridge
