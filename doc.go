// Package soilanalytics is the root of a regression pipeline for
// predicting titratable soil acidity from routine survey attributes.
//
// The pipeline packages compose in dependency order:
//
//   - dataset: CSV ingestion, validation and cleaning
//   - split: stratified train/test splitting and repeated k-fold plans
//   - features: interaction expansion and correlation pruning
//   - regressors: linear, decision tree, random forest and MARS models
//   - tuning: hyperparameter domains and configuration sampling
//   - evaluation: parallel cross-validated grid search and the final fit
//   - report: ranked-results tables, annotated CSVs and diagnostic plots
//
// The soilreport command under cmd wires these into a single run driven
// by a YAML configuration.
package soilanalytics
