package predict

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain"
)

func TestCreate2AddressEIP1014Vectors(t *testing.T) {
	tests := []struct {
		name     string
		deployer string
		salt     string
		initCode string
		want     string
	}{
		{
			name:     "example 0",
			deployer: "0x0000000000000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0x00",
			want:     "0x4D1A2e2bB4F88F0250f26Ffff098B0b30B26BF38",
		},
		{
			name:     "example 1",
			deployer: "0xdeadbeef00000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0x00",
			want:     "0xB928f69Bb1D91Cd65274e3c79d8986362984fDA3",
		},
		{
			name:     "example 2",
			deployer: "0xdeadbeef00000000000000000000000000000000",
			salt:     "0x000000000000000000000000feed000000000000000000000000000000000000",
			initCode: "0x00",
			want:     "0xD04116cDd17beBE565EB2422F2497E06cC1C9833",
		},
		{
			name:     "example 3",
			deployer: "0x0000000000000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0xdeadbeef",
			want:     "0x70f2b2914A2a4b783FaEFb75f459A580616Fcb5e",
		},
		{
			name:     "example 4",
			deployer: "0x00000000000000000000000000000000deadbeef",
			salt:     "0x00000000000000000000000000000000000000000000000000000000cafebabe",
			initCode: "0xdeadbeef",
			want:     "0x60f3f640a8508fC6a86d45DF051962668E1e8AC7",
		},
		{
			name:     "example 6",
			deployer: "0x0000000000000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0x",
			want:     "0xE33C0C7F7df4809055C3ebA6c09CFe4BaF1BD9e0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Create2Address(common.HexToAddress(tt.deployer), common.HexToHash(tt.salt), hexutil.MustDecode(tt.initCode))
			assert.Equal(t, common.HexToAddress(tt.want), got)
		})
	}
}

func TestPredictAddress(t *testing.T) {
	factory := common.HexToAddress("0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67")
	singleton := common.HexToAddress("0x41675C099F32341bf84BFc5382aF534df5C7461a")
	creationCode := hexutil.MustDecode("0x608060")
	initializer := hexutil.MustDecode("0x1234")

	salt, err := Salt(initializer, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x28ce9a5922c4257681771fe2a4ef443c26ccd67aceb2f18a31e5686dfaa89120"), salt)

	got, err := PredictAddress(factory, singleton, creationCode, initializer, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x23b884b4f33f76ee3d86174cc4a6c02e2ad24e1a"), got)

	again, err := PredictAddress(factory, singleton, creationCode, initializer, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, got, again, "prediction is deterministic")

	other, err := PredictAddress(factory, singleton, creationCode, initializer, big.NewInt(2))
	require.NoError(t, err)
	assert.NotEqual(t, got, other, "salt nonce changes the address")
}

func TestPredictAddressInvalidSaltNonce(t *testing.T) {
	tests := []struct {
		name  string
		nonce *big.Int
	}{
		{name: "negative", nonce: big.NewInt(-1)},
		{name: "nil", nonce: nil},
		{name: "too large", nonce: new(big.Int).Lsh(big.NewInt(1), 256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PredictAddress(common.Address{}, common.Address{}, nil, nil, tt.nonce)
			assert.ErrorIs(t, err, domain.ErrInvalidSaltNonce)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestDefaultSaltNonce(t *testing.T) {
	mainnet, ok := new(big.Int).SetString("47809613043268281324563426428075425901584063434030871717623213294129061929462", 10)
	require.True(t, ok)
	sepolia, ok := new(big.Int).SetString("78320563167286089765588295161383966779721133675631468918782584795398625293112", 10)
	require.True(t, ok)

	assert.Equal(t, 0, mainnet.Cmp(DefaultSaltNonce(1)))
	assert.Equal(t, 0, sepolia.Cmp(DefaultSaltNonce(11155111)))
}

func TestProxyInitCode(t *testing.T) {
	singleton := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	code := ProxyInitCode([]byte{0x60, 0x80}, singleton)
	require.Len(t, code, 34)
	assert.Equal(t, byte(0xff), code[33])
	assert.Equal(t, []byte{0x60, 0x80}, code[:2])
}
