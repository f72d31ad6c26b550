package relay

import (
	"github.com/humandebri/jpycpay/internal/admission"
	"github.com/humandebri/jpycpay/internal/feeplanner"
)

// translateAdmissionError maps an admission.Error's code onto the broader
// relay.Code space; admission failures are returned verbatim, per the
// error-propagation rule.
func translateAdmissionError(err error) (Code, string) {
	admErr, ok := err.(*admission.Error)
	if !ok {
		return CodeEstimationFail, err.Error()
	}
	switch admErr.Code {
	case admission.CodePaused:
		return CodePaused, admErr.Reason
	case admission.CodeAssetDisabled:
		return CodeAssetDisabled, admErr.Reason
	case admission.CodeBadInput:
		return CodeBadInput, admErr.Reason
	case admission.CodeExpired:
		return CodeExpired, admErr.Reason
	case admission.CodeNotYetValid:
		return CodeNotYetValid, admErr.Reason
	case admission.CodeUnconfigured:
		return CodeUnconfigured, admErr.Reason
	case admission.CodeRateLimited:
		return CodeRateLimited, admErr.Reason
	case admission.CodeDailyCapExceeded:
		return CodeDailyCapExceeded, admErr.Reason
	case admission.CodeDoubleSpend:
		return CodeDoubleSpend, admErr.Reason
	case admission.CodeEstimationFail:
		return CodeEstimationFail, admErr.Reason
	case admission.CodeGasEmpty:
		return CodeGasEmpty, admErr.Reason
	case admission.CodeRpcTransport:
		return CodeRpcTransport, admErr.Reason
	case admission.CodeRpcApplication:
		return CodeRpcApplication, admErr.Reason
	default:
		return CodeEstimationFail, admErr.Reason
	}
}

// translatePlanError maps fee-planning failures onto the stable code space:
// every fee-planning failure collapses to estimation_fail, since the fee
// planner produces neither gas_empty nor signer_mismatch.
func translatePlanError(err error) (Code, string) {
	if estErr, ok := err.(*feeplanner.EstimationFail); ok {
		return CodeEstimationFail, estErr.Reason
	}
	return CodeEstimationFail, err.Error()
}
